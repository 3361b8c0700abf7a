package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"rpgstat"
)

// bonusTable is the on-disk shape statdemo reads with gopkg.in/yaml.v3. It is
// a devtool convenience format, not the engine's own serialization — the
// engine itself has no wire format, by design (see SPEC_FULL.md §6).
type bonusTable struct {
	Sources []sourceEntry `yaml:"sources"`
	Bonuses []bonusEntry  `yaml:"bonuses"`
}

type sourceEntry struct {
	Stat  string  `yaml:"stat"`
	Value float64 `yaml:"value"`
}

type bonusEntry struct {
	Stat     string   `yaml:"stat"`
	Op       string   `yaml:"op"`
	Value    float64  `yaml:"value"`
	Dep      string   `yaml:"dep"`
	Phase    string   `yaml:"phase"`
	Priority int32    `yaml:"priority"`
	Min      *float64 `yaml:"min"`
	Max      *float64 `yaml:"max"`
	When     string   `yaml:"when"`
}

func loadBonusTable(path string) (*bonusTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bonus table %s: %w", path, err)
	}
	var table bonusTable
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parse bonus table %s: %w", path, err)
	}
	return &table, nil
}

func parsePhase(s string) rpgstat.Phase {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "additive":
		return rpgstat.PhaseAdditive
	case "multiplicative":
		return rpgstat.PhaseMultiplicative
	case "final":
		return rpgstat.PhaseFinal
	default:
		if n, err := strconv.Atoi(s); err == nil {
			return rpgstat.CustomPhase(int32(n))
		}
		return rpgstat.PhaseAdditive
	}
}

// applyBonusTable registers every source and bonus in table against r.
func applyBonusTable(r *rpgstat.Resolver[rpgstat.FloatValue], table *bonusTable) error {
	for _, s := range table.Sources {
		r.RegisterSource(rpgstat.NewStatID(s.Stat), rpgstat.ConstantSource[rpgstat.FloatValue]{
			Value: rpgstat.FloatValue(s.Value),
		})
	}

	b := rpgstat.NewBonus[rpgstat.FloatValue]()
	for _, e := range table.Bonuses {
		if err := appendBonusEntry(b, e); err != nil {
			return err
		}
	}
	return b.CompileAndApply(r)
}

func appendBonusEntry(b *rpgstat.Bonus[rpgstat.FloatValue], e bonusEntry) error {
	stat := rpgstat.NewStatID(e.Stat)
	value := rpgstat.FloatValue(e.Value)

	var predicate rpgstat.Predicate
	if e.When != "" {
		compiled, err := rpgstat.CompileScriptedPredicate(e.When)
		if err != nil {
			return fmt.Errorf("bonus for %s: %w", e.Stat, err)
		}
		predicate = compiled
	}

	switch strings.ToLower(e.Op) {
	case "flat":
		entry := b.Add(stat).InPhase(parsePhase(e.Phase)).WithPriority(e.Priority)
		if predicate != nil {
			entry = entry.When(predicate)
		}
		entry.Flat(value)

	case "percent":
		entry := b.Mul(stat).InPhase(parsePhase(e.Phase)).WithPriority(e.Priority)
		if predicate != nil {
			entry = entry.When(predicate)
		}
		entry.Percent(value)

	case "diminishing":
		entry := b.Add(stat).InPhase(parsePhase(e.Phase)).WithPriority(e.Priority)
		if predicate != nil {
			entry = entry.When(predicate)
		}
		entry.Diminishing(e.Value)

	case "scaling":
		if e.Dep == "" {
			return fmt.Errorf("bonus for %s: scaling op requires dep", e.Stat)
		}
		entry := b.Add(stat).InPhase(parsePhase(e.Phase)).WithPriority(e.Priority)
		if predicate != nil {
			entry = entry.When(predicate)
		}
		entry.Scaling(rpgstat.NewStatID(e.Dep), value)

	case "override":
		b.Override(stat, parsePhase(e.Phase), value)

	case "clamp_min":
		if e.Min == nil {
			return fmt.Errorf("bonus for %s: clamp_min requires min", e.Stat)
		}
		b.ClampMin(stat, rpgstat.FloatValue(*e.Min))

	case "clamp_max":
		if e.Max == nil {
			return fmt.Errorf("bonus for %s: clamp_max requires max", e.Stat)
		}
		b.ClampMax(stat, rpgstat.FloatValue(*e.Max))

	case "clamp":
		if e.Min == nil || e.Max == nil {
			return fmt.Errorf("bonus for %s: clamp requires min and max", e.Stat)
		}
		b.Clamp(stat, rpgstat.FloatValue(*e.Min), rpgstat.FloatValue(*e.Max))

	default:
		return fmt.Errorf("bonus for %s: unrecognized op %q", e.Stat, e.Op)
	}
	return nil
}

// parseContextFlags turns a list of "key=value" strings into a frozen
// rpgstat.Context. Values are sniffed in order: "true"/"false" become a
// bool fact, anything base-10-integer-shaped becomes an int fact, everything
// else is kept as a string fact.
func parseContextFlags(pairs []string) (rpgstat.Context, error) {
	builder := rpgstat.NewContextBuilder()
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return rpgstat.Context{}, fmt.Errorf("malformed --ctx entry %q, want key=value", pair)
		}
		switch {
		case raw == "true":
			builder.WithBool(key, true)
		case raw == "false":
			builder.WithBool(key, false)
		default:
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				builder.WithInt(key, n)
			} else {
				builder.WithString(key, raw)
			}
		}
	}
	return builder.Freeze(), nil
}
