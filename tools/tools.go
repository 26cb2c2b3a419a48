//go:generate go run . --offline

// Command gen_api_coverage compares each binding package with the OpenAPI
// document of its API and writes api_coverage_report.md at the project root.
//
// Documents are read from tools/testdata/<api>.yaml. Targets with a URL are
// refreshed once their copy is older than --max-age unless --offline is set.
// Methods are collected with go/ast: exported methods taking a
// context.Context on Client or a *Service type. Operations are matched by
// operation ID first, then by path and HTTP method conventions.
//
// Usage:
//
//	go run ./tools
//
// Or from project root:
//
//	go generate ./tools
package main
