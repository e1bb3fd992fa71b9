package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/hamidzr/surferh/model"
)

// section groups fields the way the settings panel lays them out.
type section struct {
	title string
	keys  []string
}

var sections = []section{
	{title: "Basic", keys: []string{model.FieldURL, model.FieldMaxNSteps, model.FieldMaxTimeSeconds}},
	{title: "Model Selection", keys: model.ModelFields},
	{title: "Browser Settings", keys: []string{model.FieldHeadlessBrowser, model.FieldActionTimeout}},
}

// Sheet renders settings as a plain-text panel.
type Sheet struct {
	Models model.Registry
	// Task is shown above the sections when set.
	Task string
}

func NewSheet(models model.Registry) *Sheet {
	return &Sheet{Models: models}
}

func (s *Sheet) Render(w io.Writer, settings model.AgentSettings) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if s.Task != "" {
		fmt.Fprintf(tw, "Task\t%s\n\n", s.Task)
	}
	for i, sec := range sections {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintln(tw, sec.title)
		for _, key := range sec.keys {
			f, _ := model.LookupField(key)
			value, err := settings.Field(key)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.Label, s.formatValue(f, value), f.Key)
		}
	}
	return tw.Flush()
}

func (s *Sheet) formatValue(f model.Field, value any) string {
	switch f.Kind {
	case model.KindModel:
		token := value.(model.ModelIdentifier)
		if !s.Models.Contains(string(token)) {
			return fmt.Sprintf("%s (unregistered)", token)
		}
		return fmt.Sprintf("%s (%s)", s.Models.Label(token), token)
	case model.KindBool:
		if value.(bool) {
			return "yes"
		}
		return "no"
	case model.KindInt:
		n := value.(int)
		if f.Min != 0 || f.Max != 0 {
			if n < f.Min || n > f.Max {
				return fmt.Sprintf("%d (outside %d-%d)", n, f.Min, f.Max)
			}
		}
		return fmt.Sprint(n)
	default:
		if text := fmt.Sprint(value); text != "" {
			return text
		}
		return "(empty)"
	}
}
