// Package api serves the indexed grid events over REST.
// @title GridIndexor API
// @version 1.0
// @description REST API for querying grid orders, settlements and metrics indexed by GridIndexor
// @contact.name API Support
// @contact.url https://github.com/goran-ethernal/GridIndexor
// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @basePath /api/v1
// @schemes http https
package api

//go:generate swag init -g docs.go -o docs --parseDependency --parseInternal
