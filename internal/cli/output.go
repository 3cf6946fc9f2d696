// Package cli renders rules, quotes and traces for the pricer command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/gopricer/internal/engine"
	"github.com/TimurManjosov/gopricer/internal/rules"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// PrintRules outputs rules in the specified format.
func PrintRules(w io.Writer, rs []rules.PricingRule, format OutputFormat) error {
	return render(w, format, map[string][]rules.PricingRule{"rules": rs}, func() error {
		return rulesTable(w, rs)
	})
}

// PrintQuote outputs a quote in the specified format.
func PrintQuote(w io.Writer, q engine.Quote, format OutputFormat) error {
	return render(w, format, q, func() error { return quoteTable(w, q) })
}

// PrintTraces outputs an explanation in the specified format.
func PrintTraces(w io.Writer, traces []engine.RuleTrace, format OutputFormat) error {
	return render(w, format, map[string][]engine.RuleTrace{"traces": traces}, func() error {
		return tracesTable(w, traces)
	})
}

func render(w io.Writer, format OutputFormat, data any, table func() error) error {
	switch format {
	case FormatJSON:
		return printJSON(w, data)
	case FormatYAML:
		return printYAML(w, data)
	case FormatTable:
		return table()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func rulesTable(w io.Writer, rs []rules.PricingRule) error {
	table := tablewriter.NewWriter(w)
	table.Header("Priority", "ID", "Name", "Status", "Lifecycle", "Rental Window", "Brackets", "Car Models")

	for _, r := range rs {
		name := r.Name
		if len(name) > 32 {
			name = name[:29] + "..."
		}
		models := make([]string, 0, len(r.Pricing))
		for _, p := range r.Pricing {
			models = append(models, p.SIPPCode)
		}
		table.Append(
			fmt.Sprintf("%d", r.Priority),
			r.ID,
			name,
			string(r.Status),
			string(r.Lifecycle),
			window(r.Conditions.RentalDateRange),
			brackets(r.Conditions.RentalDurationBrackets),
			strings.Join(models, ","),
		)
	}
	return table.Render()
}

func quoteTable(w io.Writer, q engine.Quote) error {
	table := tablewriter.NewWriter(w)
	table.Header("SIPP", "Days", "Rule", "Priority", "Bracket", "Price", "Reason")

	rule, priority := "-", "-"
	if q.Selection.Found() {
		rule = q.Selection.Rule.ID
		priority = fmt.Sprintf("%d", q.Selection.Rule.Priority)
	}
	bracket, price := "-", "-"
	if q.Price.Bracket != nil {
		bracket = brackets([]rules.Bracket{*q.Price.Bracket})
	}
	if q.Price.Found() {
		price = q.Price.Price.StringFixed(2)
	}
	table.Append(q.SIPPCode, fmt.Sprintf("%d", q.DurationDays), rule, priority, bracket, price, string(q.Price.Reason))
	return table.Render()
}

func tracesTable(w io.Writer, traces []engine.RuleTrace) error {
	table := tablewriter.NewWriter(w)
	table.Header("Priority", "ID", "Name", "Outcome", "Axis")
	for _, tr := range traces {
		table.Append(fmt.Sprintf("%d", tr.Priority), tr.RuleID, tr.Name, string(tr.Outcome), tr.Axis)
	}
	return table.Render()
}

func window(r *rules.DateRange) string {
	if r == nil {
		return "always"
	}
	return r.Start.String() + ".." + r.End.String()
}

func brackets(bs []rules.Bracket) string {
	if len(bs) == 0 {
		return "any"
	}
	parts := make([]string, 0, len(bs))
	for _, b := range bs {
		if b.From == b.To {
			parts = append(parts, fmt.Sprintf("%d", b.From))
			continue
		}
		parts = append(parts, fmt.Sprintf("%d-%d", b.From, b.To))
	}
	return strings.Join(parts, ",")
}
