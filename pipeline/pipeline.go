package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/bpmforge/bpmgen/config"
	"github.com/bpmforge/bpmgen/exporter"
	"github.com/bpmforge/bpmgen/llm"
	"github.com/bpmforge/bpmgen/prompt"
	"github.com/bpmforge/bpmgen/schema"
	"github.com/bpmforge/bpmgen/store"
	"github.com/bpmforge/bpmgen/validator"
)

// Tables with a fixed role in the generation order.
const (
	tablePhases    = "process_phases"
	tableProcesses = "process_definitions"
	tableElements  = "bpmn_elements"
	tableFlows     = "sequence_flows"
	tableResources = "resources"
	tablePools     = "pools"
	tableLanes     = "lanes"
	tableSpecs     = "product_specifications"
)

// RetryExhaustedError reports that a generation call kept producing
// unusable output through the whole fix-it budget. LastRaw carries the
// final raw model output for diagnosis.
type RetryExhaustedError struct {
	LastErr error
	LastRaw string
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("generation retries exhausted: %v", e.LastErr)
}

func (e *RetryExhaustedError) Unwrap() error { return e.LastErr }

// Report is what a finished run hands back to the CLI.
type Report struct {
	Dir     string
	Summary *exporter.Summary
}

// Pipeline drives one generation run: phases, the configured hierarchy
// levels, flows, resources, pools and lanes, then aggregation, semantic
// validation and export. Strictly sequential; the context is never
// shared across runs.
type Pipeline struct {
	cfg    *config.Config
	model  *schema.Model
	client llm.Completer
	store  store.TableStore
	writer *exporter.Writer

	ctx      *Context
	warnings []validator.Finding
	failures []validator.Finding
	timings  []exporter.StageTiming
}

func New(cfg *config.Config, model *schema.Model, client llm.Completer, st store.TableStore, writer *exporter.Writer) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		model:  model,
		client: client,
		store:  st,
		writer: writer,
		ctx:    NewContext(),
	}
}

// Run executes the full pipeline. The exported run directory is written
// even when the run ends in a hard semantic error, so the collected
// warnings stay inspectable.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	started := time.Now()
	fmt.Printf("🚀 Generating process data for: %s\n", color.CyanString(p.cfg.ProductDescription))

	if err := p.timed("process_map", func() error { return p.runPhases(ctx) }); err != nil {
		return nil, fmt.Errorf("generating process phases: %w", err)
	}

	for i, level := range p.cfg.Levels {
		level := level
		err := p.timed("level_"+level.Name, func() error { return p.runLevel(ctx, level) })
		if err != nil {
			if p.levelRequired(i) {
				return nil, fmt.Errorf("level '%s' failed and later levels depend on its IDs: %w", level.Name, err)
			}
			p.warnSkip(level.Name, err)
		}
	}

	if err := p.timed("sequence_flows", func() error { return p.runFlows(ctx) }); err != nil {
		return nil, fmt.Errorf("generating sequence flows: %w", err)
	}
	if err := p.timed("resources", func() error { return p.runResources(ctx) }); err != nil {
		p.warnSkip(tableResources, err)
	}
	if err := p.timed("pools_lanes", func() error { return p.runPoolsAndLanes(ctx) }); err != nil {
		p.warnSkip(tablePools, err)
	}
	if err := p.timed("product_specifications", func() error { return p.runProductSpecifications(ctx) }); err != nil {
		p.warnSkip(tableSpecs, err)
	}

	var semErr error
	_ = p.timed("semantic_validation", func() error {
		semErr = p.runSemanticStage()
		return semErr
	})

	report, exportErr := p.export(started, semErr == nil)
	if exportErr != nil {
		return nil, exportErr
	}
	if semErr != nil {
		return report, semErr
	}
	return report, nil
}

// runPhases asks for the high-level process map before any hierarchy
// level runs; later prompts embed the phases for coherence.
func (p *Pipeline) runPhases(ctx context.Context) error {
	fmt.Println("⚙️  Generating process map...")
	text := prompt.ProcessMap(p.model.Table(tablePhases), p.cfg.ProductDescription, p.cfg.BatchSizes.Phases)
	return p.generateTable(ctx, tablePhases, text)
}

// runLevel dispatches one hierarchy level. A level whose table exists in
// the schema generates that table directly; otherwise it is a sub-level
// producing generic process elements plus phase children scoped to them.
func (p *Pipeline) runLevel(ctx context.Context, level config.Level) error {
	table := level.Table
	if table == "" {
		table = level.Name
	}
	fmt.Printf("⚙️  Generating level %s...\n", color.CyanString(level.Name))

	if p.model.HasTable(table) && table != tableElements {
		text := prompt.Entity(p.model.Table(table), p.cfg.ProductDescription, p.ctx.IDSnapshot(), p.cfg.BatchSizes.Processes)
		return p.generateTable(ctx, table, text)
	}
	return p.runSubLevel(ctx, level)
}

// runSubLevel performs the two sub-steps of a hierarchical level:
// element rows validated against the generic element table, then phase
// rows scoped to the element IDs just created.
func (p *Pipeline) runSubLevel(ctx context.Context, level config.Level) error {
	procID, procName := p.processIdentity()

	before := len(p.ctx.Rows(tableElements))
	text := prompt.Elements(procID, procName, p.ctx.Rows(tablePhases), p.ctx.Rows(tableElements), p.cfg.BatchSizes.Elements)
	if err := p.generateTable(ctx, tableElements, text); err != nil {
		return err
	}

	var parentIDs []string
	for _, row := range p.ctx.Rows(tableElements)[before:] {
		parentIDs = append(parentIDs, row.String("element_id"))
	}

	phaseText := prompt.PhaseEntities(p.model.Table(tablePhases), level.Name, parentIDs, p.cfg.BatchSizes.Phases)
	rows, err := p.generateRows(ctx, phaseText)
	if err != nil {
		return err
	}
	if err := p.validateAndStore(ctx, tablePhases, level.Name+"_phases", rows); err != nil {
		return err
	}
	return nil
}

func (p *Pipeline) runFlows(ctx context.Context) error {
	fmt.Println("⚙️  Generating sequence flows...")
	elements := elementRows(p.ctx)
	if len(elements) == 0 {
		return fmt.Errorf("no elements available to connect")
	}
	procID, _ := p.processIdentity()
	return p.generateTable(ctx, tableFlows, prompt.Flows(elements, procID))
}

func (p *Pipeline) runResources(ctx context.Context) error {
	fmt.Println("⚙️  Generating resources...")
	procID, _ := p.processIdentity()
	text := prompt.Resources(p.model.Table(tableResources), elementRows(p.ctx), procID, p.cfg.BatchSizes.Resources)
	return p.generateTable(ctx, tableResources, text)
}

func (p *Pipeline) runPoolsAndLanes(ctx context.Context) error {
	fmt.Println("⚙️  Generating pools and lanes...")
	procID, procName := p.processIdentity()

	if err := p.generateTable(ctx, tablePools, prompt.Pools(procID, procName, p.cfg.BatchSizes.Pools)); err != nil {
		return err
	}
	for _, pool := range p.ctx.Rows(tablePools) {
		if err := p.generateTable(ctx, tableLanes, prompt.Lanes(pool, p.cfg.BatchSizes.LanesPerPool)); err != nil {
			p.warnSkip(tableLanes, err)
		}
	}
	return nil
}

// runProductSpecifications adds one technical specification record for
// the product to the exported context.
func (p *Pipeline) runProductSpecifications(ctx context.Context) error {
	fmt.Println("⚙️  Generating product specifications...")
	_, procName := p.processIdentity()
	return p.generateTable(ctx, tableSpecs, prompt.ProductSpecifications(p.cfg.ProductDescription, procName))
}

// timed runs one stage and records its wall-clock duration.
func (p *Pipeline) timed(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	p.timings = append(p.timings, exporter.StageTiming{
		Stage:    name,
		Duration: time.Since(start).Round(time.Millisecond).String(),
	})
	return err
}

// runSemanticStage aggregates everything generated so far and validates
// the process graph. Warnings are always collected; a hard violation is
// returned after the full pass.
func (p *Pipeline) runSemanticStage() error {
	fmt.Println("🔍 Validating process graph...")
	elements, flows := Aggregate(p.ctx)
	result, err := validator.ValidateGraph(elements, flows)
	if result != nil {
		p.warnings = append(p.warnings, result.Warnings...)
		p.failures = append(p.failures, result.Errors...)
		for _, w := range result.Warnings {
			fmt.Printf("  ⚠️  %s\n", color.YellowString(w.String()))
		}
	}
	if err != nil {
		return err
	}
	fmt.Printf("✅ Process graph valid (%d elements, %d flows)\n", len(elements), len(flows))
	return nil
}

func (p *Pipeline) export(started time.Time, success bool) (*Report, error) {
	tables, err := p.store.FetchAll(context.Background(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching stored rows for export: %v", err)
	}

	counts := make(map[string]int, len(tables))
	for name, rows := range tables {
		counts[name] = len(rows)
	}
	summary := &exporter.Summary{
		ProductDescription: p.cfg.ProductDescription,
		Model:              p.cfg.Model,
		StartedAt:          started,
		Runtime:            time.Since(started).Round(time.Millisecond).String(),
		RowCounts:          counts,
		Warnings:           p.warnings,
		Errors:             p.failures,
		Success:            success,
	}

	metrics := &exporter.Metrics{
		Stages: p.timings,
		Total:  summary.Runtime,
	}
	dir, err := p.writer.WriteRun(tables, summary, metrics)
	if err != nil {
		return nil, fmt.Errorf("exporting run: %v", err)
	}
	fmt.Printf("📦 Run exported to %s\n", color.GreenString(dir))
	return &Report{Dir: dir, Summary: summary}, nil
}

// generateTable generates rows for one table, validates them and stores
// the batch, recording rows and IDs under the table name.
func (p *Pipeline) generateTable(ctx context.Context, table, promptText string) error {
	rows, err := p.generateRows(ctx, promptText)
	if err != nil {
		return err
	}
	return p.validateAndStore(ctx, table, table, rows)
}

// validateAndStore runs structural validation, persists the batch and
// records rows under rowKey and IDs under the table name (the key
// foreign-key checks resolve against).
func (p *Pipeline) validateAndStore(ctx context.Context, table, rowKey string, rows []llm.Row) error {
	result := validator.ValidateRows(table, rows, p.model, p.ctx)
	p.warnings = append(p.warnings, result.Warnings...)
	for _, w := range result.Warnings {
		fmt.Printf("  ⚠️  %s\n", color.YellowString(w.String()))
	}
	if !result.Valid {
		p.failures = append(p.failures, result.Errors...)
		return result.Err()
	}

	ids, err := p.store.InsertRows(ctx, table, rows)
	if err != nil {
		return fmt.Errorf("storing rows for table '%s': %v", table, err)
	}
	p.ctx.RecordRows(rowKey, rows)
	p.ctx.RecordIDs(table, ids)
	fmt.Printf("  ✅ %d rows stored for %s\n", len(rows), table)
	return nil
}

// generateRows performs one generation call with the fix-it retry
// protocol: on a request or parse failure the next attempt embeds the
// original prompt, the previous raw output and the error, up to
// RetryBudget extra attempts.
func (p *Pipeline) generateRows(ctx context.Context, promptText string) ([]llm.Row, error) {
	opts := llm.Options{
		Model:       p.cfg.Model,
		Temperature: llm.Temp(p.cfg.Temperature),
		MaxTokens:   p.cfg.MaxTokens,
		Debug:       p.cfg.Debug,
	}

	current := promptText
	var lastErr error
	var lastRaw string

	for attempt := 0; attempt <= p.cfg.RetryBudget; attempt++ {
		raw, err := p.client.Complete(ctx, current, opts)
		if err != nil {
			lastErr, lastRaw = err, ""
		} else {
			rows, perr := llm.ParseRows(raw)
			if perr == nil {
				return rows, nil
			}
			lastErr, lastRaw = perr, raw
		}

		if attempt < p.cfg.RetryBudget {
			if p.cfg.Debug {
				fmt.Printf("  🔁 retrying after error: %v\n", lastErr)
			}
			current = prompt.FixIt(promptText, lastRaw, lastErr)
		}
	}
	return nil, &RetryExhaustedError{LastErr: lastErr, LastRaw: lastRaw}
}

// levelRequired reports whether a failed level must abort the run: it is
// flagged required in config, or a later level's table declares a
// foreign key into the failed level's table.
func (p *Pipeline) levelRequired(idx int) bool {
	level := p.cfg.Levels[idx]
	if level.Required {
		return true
	}
	failedTable := level.Table
	if failedTable == "" {
		failedTable = level.Name
	}
	for _, later := range p.cfg.Levels[idx+1:] {
		table := later.Table
		if table == "" {
			table = later.Name
		}
		spec := p.model.Table(table)
		if spec == nil {
			continue
		}
		for _, fk := range spec.ForeignKeys {
			if fk.ReferencesTable == failedTable {
				return true
			}
		}
	}
	return false
}

// processIdentity returns the ID and name of the first generated process
// definition, with stable fallbacks before that level has run.
func (p *Pipeline) processIdentity() (string, string) {
	rows := p.ctx.Rows(tableProcesses)
	if len(rows) == 0 {
		return "PROC_001", p.cfg.ProductDescription
	}
	id := rows[0].String("process_id")
	if id == "" {
		if ids, ok := p.ctx.IDs(tableProcesses); ok {
			id = ids[0]
		}
	}
	name := rows[0].String("process_name")
	if name == "" {
		name = p.cfg.ProductDescription
	}
	return id, name
}

func (p *Pipeline) warnSkip(stage string, err error) {
	f := validator.Finding{
		Kind:    validator.LevelSkipped,
		Table:   stage,
		Message: fmt.Sprintf("stage '%s' skipped: %v", stage, err),
	}
	f.Severity = "warning"
	p.warnings = append(p.warnings, f)
	fmt.Printf("  ⚠️  %s\n", color.YellowString(f.Message))
}

// elementRows returns every row recorded under the element table key.
func elementRows(c *Context) []llm.Row {
	return c.Rows(tableElements)
}
