// Package main generates reference documentation: markdown for the empirectl
// command tree plus the OpenAPI document the server serves at /openapi.json.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra/doc"

	"github.com/Sadat41/Empire-Enhanced-sub001/cmd/empirectl/cmd"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/api/handlers"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/charm"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/rules"
)

func main() {
	output := flag.String("output", "docs", "output directory for generated documentation")
	version := flag.String("version", "dev", "version stamped into the OpenAPI document")
	flag.Parse()

	cliDir := filepath.Join(*output, "cli")
	if err := os.MkdirAll(cliDir, 0o750); err != nil {
		log.Fatalf("creating output directory: %v", err)
	}

	root := cmd.Root()
	root.DisableAutoGenTag = true

	if err := doc.GenMarkdownTree(root, cliDir); err != nil {
		log.Fatalf("generating CLI docs: %v", err)
	}
	fmt.Printf("CLI docs generated in %s/\n", cliDir)

	spec, err := openAPIDocument(*version)
	if err != nil {
		log.Fatalf("generating OpenAPI document: %v", err)
	}

	specPath := filepath.Join(*output, "openapi.json")
	if err := os.WriteFile(specPath, spec, 0o600); err != nil {
		log.Fatalf("writing OpenAPI document: %v", err)
	}
	fmt.Printf("OpenAPI document written to %s\n", specPath)
}

// openAPIDocument registers every API route the way the server does and
// marshals the resulting document. Handlers are constructed with nil
// providers: route registration only reflects over the request and response
// types, it never invokes them.
func openAPIDocument(version string) ([]byte, error) {
	e := echo.New()
	api := humaecho.New(e, handlers.NewAPIConfig(version))

	table := charm.NewTable()
	ruleStore := rules.NewStore(table)

	handlers.RegisterHealthRoutes(api,
		handlers.NewServiceHealthHandler(time.Time{}, nil, ruleStore, nil))
	handlers.RegisterSettingsRoutes(api, handlers.NewSettingsHandler(nil, ruleStore))
	handlers.RegisterTargetRoutes(api, handlers.NewTargetsHandler(nil, ruleStore))
	handlers.RegisterCharmRoutes(api, handlers.NewCharmsHandler(table))
	handlers.RegisterNotificationRoutes(api, handlers.NewNotificationsHandler(nil))
	handlers.RegisterJobRoutes(api, handlers.NewJobsHandler(nil))
	handlers.RegisterStatsRoutes(api, handlers.NewStatsHandler(nil, ruleStore))
	handlers.RegisterTriggerRoutes(api, handlers.NewTriggerHandler(nil, nil))

	return json.MarshalIndent(api.OpenAPI(), "", "  ")
}
