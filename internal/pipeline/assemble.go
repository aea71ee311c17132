package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aristath/adrg/internal/report"
	"github.com/aristath/adrg/internal/scheduler"
)

func (b *builder) assemblyTask(agent *scheduler.Agent) *scheduler.Task {
	action := func(ctx context.Context, view scheduler.ContextView) (scheduler.Output, error) {
		path, err := b.assemble(view)
		return scheduler.Output{Path: path}, err
	}

	return &scheduler.Task{
		ID:          TaskAssembleDocument,
		Description: "Assemble all components into final ADRG document",
		Agent:       agent,
		Action:      scheduler.ActionFunc(action),
		DependsOn: []string{
			TaskExtractMetadata,
			TaskExtractProtocol,
			TaskAnalyzeTLF,
			TaskExtractADaMInfo,
			TaskAnalyzeADaM,
			TaskPkgDescriptions,
		},
	}
}

// assemble fills the ADRG template from whatever outputs exist. Missing
// inputs render as placeholders rather than failing the document.
func (b *builder) assemble(view scheduler.ContextView) (string, error) {
	cfg := b.cfg

	protocolPath := b.resolveOutput(view, TaskExtractProtocol, cfg.ProtocolRetrieve.Out)
	inventoryPath := ""
	if cfg.ADaMInfo.InventoryOut != "" {
		inventoryPath = cfg.Resolve(cfg.ADaMInfo.InventoryOut)
	}

	var s report.Sections
	var err error
	read := func(dst *string, path, fallback string) {
		if err != nil {
			return
		}
		*dst, err = report.CSVTableOrFallback(path, fallback)
	}
	read(&s.Standards, b.resolveOutput(view, TaskExtractMetadata, cfg.SDTMMedraVersion.Out), report.EmptyTable)
	read(&s.Analysis, b.resolveOutput(view, TaskAnalyzeTLF, cfg.VarFilter.Out), report.EmptyTable)
	read(&s.Variables, b.resolveOutput(view, TaskExtractADaMInfo, cfg.ADaMInfo.Out), report.EmptyTable)
	read(&s.Dependencies, cfg.Resolve(cfg.ADaMInfo.DepsOut), report.EmptyTable)
	read(&s.RPackages, b.resolveOutput(view, TaskPkgDescriptions, cfg.PkgDescriber.Out), report.EmptyTable)
	read(&s.ADaMPrograms, b.resolveOutput(view, TaskAnalyzeADaM, cfg.ADaMScriptsAnalyzer.Out), report.EmptyTable)
	read(&s.Inventory, inventoryPath, report.EmptyInventory)
	if err != nil {
		return "", err
	}

	s.Protocol, err = report.TextOrFallback(protocolPath, report.MissingProtocol)
	if err != nil {
		return "", err
	}

	templatePath := cfg.Resolve(cfg.Template.Path)
	tmpl, err := os.ReadFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}

	// The number is only substituted into templates that ask for it.
	if s.Protocol != report.MissingProtocol && strings.Contains(string(tmpl), report.PlaceholderProtocolNumber) {
		if n, ok := report.ExtractProtocolNumber(s.Protocol); ok {
			s.ProtocolNumber = n
		}
	}

	filled, err := report.Fill(string(tmpl), s)
	if err != nil {
		return "", fmt.Errorf("%s: %w", templatePath, err)
	}

	out := cfg.Resolve(cfg.Template.Output)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(out, []byte(filled), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", out, err)
	}
	return out, nil
}
