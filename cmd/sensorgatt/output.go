package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/srg/sensorgatt/internal/device"
	"github.com/srg/sensorgatt/pkg/barometer"
	"github.com/srg/sensorgatt/pkg/glucose"
	"github.com/srg/sensorgatt/pkg/racp"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/term"
)

// Fields is an ordered key/value listing of a decoded value
type Fields = orderedmap.OrderedMap[string, string]

func newFields() *Fields {
	return orderedmap.New[string, string]()
}

// printer writes listings and tables, coloured only when out is a terminal
type printer struct {
	out   io.Writer
	key   *color.Color
	ok    *color.Color
	fail  *color.Color
	faint *color.Color
}

func newPrinter(out io.Writer) *printer {
	enabled := false
	if f, ok := out.(*os.File); ok {
		enabled = term.IsTerminal(int(f.Fd()))
	}
	paint := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return &printer{
		out:   out,
		key:   paint(color.FgCyan),
		ok:    paint(color.FgGreen),
		fail:  paint(color.FgRed, color.Bold),
		faint: paint(color.Faint),
	}
}

// Fields prints one "key: value" line per entry with values aligned
func (p *printer) Fields(f *Fields) {
	width := 0
	for pair := f.Oldest(); pair != nil; pair = pair.Next() {
		width = max(width, len(pair.Key))
	}
	for pair := f.Oldest(); pair != nil; pair = pair.Next() {
		pad := strings.Repeat(" ", width-len(pair.Key))
		fmt.Fprintf(p.out, "%s:%s %s\n", p.key.Sprint(pair.Key), pad, pair.Value)
	}
}

// Table prints rows under header with space-padded columns
func (p *printer) Table(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	line := func(cells []string, c *color.Color) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = cell + strings.Repeat(" ", widths[i]-len(cell))
		}
		text := strings.TrimRight(strings.Join(parts, "  "), " ")
		if c != nil {
			text = c.Sprint(text)
		}
		fmt.Fprintln(p.out, text)
	}

	line(header, p.key)
	for _, row := range rows {
		line(row, nil)
	}
}

// JSON prints v indented
func (p *printer) JSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.out, string(data))
	return err
}

// describe lists the fields of a decoded characteristic value
func describe(v any) *Fields {
	f := newFields()
	switch val := v.(type) {
	case *glucose.Record:
		describeRecord(f, val)
	case *glucose.Context:
		describeContext(f, val)
	case racp.Command:
		f.Set("opcode", fmt.Sprintf("%s (0x%02x)", val.OpCode, uint8(val.OpCode)))
		f.Set("operator", fmt.Sprintf("%s (0x%02x)", val.Operator, uint8(val.Operator)))
		if len(val.Operand) > 0 {
			f.Set("operand", joinUint16(val.Operand))
		}
	case racp.Indication:
		f.Set("opcode", fmt.Sprintf("%s (0x%02x)", val.OpCode, uint8(val.OpCode)))
		switch {
		case val.Response != nil:
			f.Set("request", val.Response.RequestOpCode.String())
			f.Set("response", val.Response.Code.String())
		case val.Count != nil:
			f.Set("count", strconv.Itoa(int(val.Count.Count)))
		}
	case barometer.Pressure:
		f.Set("pressure", val.String())
		f.Set("raw", strconv.Itoa(int(val.Raw)))
	case barometer.Threshold:
		f.Set("threshold", val.String())
		f.Set("raw", strconv.Itoa(int(val.Raw)))
	case barometer.ScanInterval:
		f.Set("scan_interval", val.String())
	case barometer.SensorType:
		f.Set("sensor_type", val.String())
	case barometer.FilterType:
		f.Set("filter", val.String())
	case *device.ClientConfig:
		f.Set("notifications", strconv.FormatBool(val.Notifications))
		f.Set("indications", strconv.FormatBool(val.Indications))
	default:
		f.Set("value", fmt.Sprint(val))
	}
	return f
}

func describeRecord(f *Fields, r *glucose.Record) {
	f.Set("sequence_number", strconv.Itoa(int(r.SequenceNumber)))
	f.Set("base_time", r.BaseTime.String())
	if r.TimeOffset != nil {
		f.Set("time_offset", fmt.Sprintf("%d min", *r.TimeOffset))
		f.Set("timestamp", r.Timestamp().Format("2006-01-02 15:04:05"))
	}
	if r.Concentration != nil {
		f.Set("concentration", fmt.Sprintf("%s %s", r.Concentration.Value, r.Concentration.Unit))
	}
	if r.TypeLocation != nil {
		f.Set("sample_type", r.TypeLocation.Type.String())
		f.Set("sample_location", r.TypeLocation.Location.String())
	}
	if r.SensorStatus != nil {
		status := strings.Join(r.SensorStatus.Annunciations(), ", ")
		if status == "" {
			status = "ok"
		}
		f.Set("sensor_status", status)
	}
	f.Set("context_follows", strconv.FormatBool(r.ContextFollows))
}

func describeContext(f *Fields, c *glucose.Context) {
	f.Set("sequence_number", strconv.Itoa(int(c.SequenceNumber)))
	if c.ExtendedFlags != nil {
		f.Set("extended_flags", fmt.Sprintf("0x%02x", *c.ExtendedFlags))
	}
	if c.Carbohydrate != nil {
		f.Set("carbohydrate", fmt.Sprintf("%s %s kg", c.Carbohydrate.ID, c.Carbohydrate.Amount))
	}
	if c.Meal != nil {
		f.Set("meal", c.Meal.String())
	}
	if c.TesterHealth != nil {
		f.Set("tester", c.TesterHealth.Tester.String())
		f.Set("health", c.TesterHealth.Health.String())
	}
	if c.Exercise != nil {
		f.Set("exercise", fmt.Sprintf("%ds at %d%%", c.Exercise.Duration, c.Exercise.Intensity))
	}
	if c.Medication != nil {
		f.Set("medication", fmt.Sprintf("%s %s %s", c.Medication.ID, c.Medication.Amount, c.Medication.Unit))
	}
	if c.HbA1c != nil {
		f.Set("hba1c", c.HbA1c.String()+" %")
	}
}

// contextSummary is the one-cell rendering of a context in the store table
func contextSummary(c *glucose.Context) string {
	if c == nil {
		return "-"
	}
	var parts []string
	f := newFields()
	describeContext(f, c)
	for pair := f.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == "sequence_number" {
			continue
		}
		parts = append(parts, pair.Key+"="+pair.Value)
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func joinUint16(vs []uint16) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(int(v))
	}
	return strings.Join(parts, " ")
}

// parseHex accepts bytes separated by spaces, colons or dashes, with an optional 0x prefix
func parseHex(s string) ([]byte, error) {
	cleaned := strings.NewReplacer(" ", "", ":", "", "-", "", "0x", "", "0X", "").Replace(s)
	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidHex, s, err)
	}
	return data, nil
}

// formatHex renders bytes as space separated upper-case pairs
func formatHex(data []byte) string {
	return fmt.Sprintf("% X", data)
}
