package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/sensorgatt/internal/device"
	"github.com/srg/sensorgatt/internal/monitor"
	"github.com/srg/sensorgatt/internal/session"
	"github.com/srg/sensorgatt/internal/simulator"
	"github.com/srg/sensorgatt/pkg/codec"
	"github.com/srg/sensorgatt/pkg/glucose"
	"github.com/srg/sensorgatt/pkg/racp"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a record transfer against a simulated meter",
	Long: `Starts a simulated glucose meter holding generated records, attaches a
session to it and issues one Record Access Control Point command. Prints the
records the session received, a summary, and optionally the raw notification trace.

Examples:
  # Transfer every record
  sensorgatt simulate

  # Records with sequence number 3 and above, with the notification trace
  sensorgatt simulate --operator gte --operand 3 --trace

  # Ask for the number of records, then delete the first one
  sensorgatt simulate --op count --operator all
  sensorgatt simulate --op delete --operator first`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

var (
	simOp       string
	simOperator string
	simOperand  []uint
	simRecords  int
	simInterval time.Duration
	simTimeout  time.Duration
	simPressure float64
	simTrace    bool
	simJSON     bool
)

// seedStart is the base time of the first generated record
var seedStart = time.Date(2024, time.March, 15, 7, 30, 0, 0, time.UTC)

// seedReadings are the generated concentrations in mg/dL
var seedReadings = []int16{95, 142, 118, 87, 164, 103, 129, 76}

func init() {
	simulateCmd.Flags().StringVar(&simOp, "op", "report", "Opcode: report, delete, abort, count, latest")
	simulateCmd.Flags().StringVar(&simOperator, "operator", "all", "Operator: null, all, lte, range, gte, first, last")
	simulateCmd.Flags().UintSliceVar(&simOperand, "operand", nil, "Operand sequence number(s), comma-separated")
	simulateCmd.Flags().IntVar(&simRecords, "records", 5, "Number of records the meter holds")
	simulateCmd.Flags().DurationVar(&simInterval, "interval", 0, "Delay between streamed notifications")
	simulateCmd.Flags().DurationVar(&simTimeout, "timeout", 0, "Response timeout (default from config)")
	simulateCmd.Flags().Float64Var(&simPressure, "pressure", math.NaN(), "Barometer pressure the meter notifies before the transfer")
	simulateCmd.Flags().BoolVar(&simTrace, "trace", false, "Print the raw notification trace")
	simulateCmd.Flags().BoolVar(&simJSON, "json", false, "Output as JSON")
}

// simulationReport is the JSON shape of a simulation run
type simulationReport struct {
	Command    racp.Command         `json:"command"`
	Indication *racp.Indication     `json:"indication,omitempty"`
	Error      string               `json:"error,omitempty"`
	Records    []glucose.Entry      `json:"records"`
	Pending    int                  `json:"pending_contexts"`
	OnMeter    int                  `json:"on_meter"`
	Barometer  any                  `json:"barometer,omitempty"`
	Trace      []session.TraceEntry `json:"trace,omitempty"`
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}
	profile, err := cfg.Profile()
	if err != nil {
		return err
	}
	if simRecords < 0 || simRecords > math.MaxUint16 {
		return fmt.Errorf("--records must be between 0 and %d", math.MaxUint16)
	}

	operand := make([]string, len(simOperand))
	for i, v := range simOperand {
		operand[i] = strconv.FormatUint(uint64(v), 10)
	}
	command, err := parseCommand(simOp, simOperator, operand)
	if err != nil {
		return err
	}

	timeout := cfg.RACPTimeout
	if simTimeout > 0 {
		timeout = simTimeout
	}

	meter := simulator.NewMeter(
		simulator.WithLogger(logger),
		simulator.WithProfile(profile),
		simulator.WithInterval(simInterval),
	)
	seedMeter(meter, simRecords)

	metrics := monitor.NewMetrics(prometheus.NewRegistry(), cfg.MetricsNamespace)
	sess := session.New(profile, meter, session.Options{
		Logger:           logger,
		Metrics:          metrics,
		ParseOptions:     cfg.ParseOptions(),
		TraceDepth:       cfg.TraceDepth,
		RACPTimeout:      timeout,
		RACPWriteTimeout: cfg.RACPWriteTimeout,
	})
	meter.Attach(sess)

	if !math.IsNaN(simPressure) {
		raw := int32(math.Round(simPressure * cfg.Barometer.PressureDivisor))
		if err := meter.Notify(profile.UUID(device.RoleBaroPressure), codec.NewWriter(4).Int32(raw).Bytes()); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger.WithFields(logrus.Fields{"opcode": command.OpCode, "records": simRecords}).Info("Issuing control point command")
	result, issueErr := sess.Issue(ctx, command)
	meter.Wait()
	if errors.Is(issueErr, context.Canceled) {
		return issueErr
	}

	var respErr *racp.ResponseCodeError
	if issueErr != nil && !errors.As(issueErr, &respErr) {
		return issueErr
	}

	report := simulationReport{
		Command: command,
		Records: sess.Store().AllRecords(),
		Pending: sess.Store().PendingContexts(),
		OnMeter: meter.Len(),
	}
	if result != nil {
		report.Indication = &result.Indication
	}
	if issueErr != nil {
		report.Error = issueErr.Error()
	}
	if reading := sess.Reading(); reading.Pressure != nil {
		report.Barometer = reading
	}
	if simTrace {
		report.Trace = sess.Trace()
	}

	p := newPrinter(cmd.OutOrStdout())
	if simJSON {
		if err := p.JSON(report); err != nil {
			return err
		}
		return issueErr
	}

	printSimulation(p, report, result)
	return issueErr
}

// seedMeter fills the meter with n records; every second one carries a meal context
func seedMeter(m *simulator.Meter, n int) {
	for i := 0; i < n; i++ {
		status := glucose.SensorStatus(0)
		rec := &glucose.Record{
			SequenceNumber: uint16(i + 1),
			BaseTime:       codec.DateTimeFromTime(seedStart.Add(time.Duration(i) * 4 * time.Hour)),
			Concentration: &glucose.Concentration{
				Value: codec.SFloat{Mantissa: seedReadings[i%len(seedReadings)], Exponent: -5},
				Unit:  glucose.KgPerLiter,
			},
			TypeLocation: &glucose.TypeLocation{Type: glucose.CapillaryWholeBlood, Location: glucose.LocationFinger},
			SensorStatus: &status,
		}

		var ctx *glucose.Context
		if i%2 == 1 {
			meal := glucose.MealPreprandial
			if i%4 == 3 {
				meal = glucose.MealPostprandial
			}
			ctx = &glucose.Context{Meal: &meal}
		}
		m.AddRecord(rec, ctx)
	}
}

func printSimulation(p *printer, report simulationReport, result *racp.Result) {
	exchange := newFields()
	exchange.Set("request", report.Command.String())
	switch {
	case report.Error != "":
		exchange.Set("response", p.fail.Sprint(report.Error))
	case report.Indication != nil:
		exchange.Set("response", p.ok.Sprint(report.Indication.String()))
	}
	p.Fields(exchange)
	fmt.Fprintln(p.out)

	rows := make([][]string, 0, len(report.Records))
	for _, e := range report.Records {
		r := e.Record
		concentration, sample := "-", "-"
		if r.Concentration != nil {
			concentration = fmt.Sprintf("%s %s", r.Concentration.Value, r.Concentration.Unit)
		}
		if r.TypeLocation != nil {
			sample = fmt.Sprintf("%s / %s", r.TypeLocation.Type, r.TypeLocation.Location)
		}
		rows = append(rows, []string{
			strconv.Itoa(int(r.SequenceNumber)),
			r.Timestamp().Format("2006-01-02 15:04"),
			concentration,
			sample,
			contextSummary(e.Context),
		})
	}
	p.Table([]string{"SEQ", "TIME", "CONCENTRATION", "SAMPLE", "CONTEXT"}, rows)
	fmt.Fprintln(p.out)

	summary := newFields()
	summary.Set("received", strconv.Itoa(len(report.Records)))
	summary.Set("pending_contexts", strconv.Itoa(report.Pending))
	summary.Set("on_meter", strconv.Itoa(report.OnMeter))
	if count, ok := result.Count(); ok {
		summary.Set("count", strconv.Itoa(int(count)))
	}
	if result != nil {
		summary.Set("elapsed", result.Elapsed.Round(time.Millisecond).String())
	}
	if report.Barometer != nil {
		summary.Set("barometer", fmt.Sprint(report.Barometer))
	}
	p.Fields(summary)

	if len(report.Trace) > 0 {
		fmt.Fprintln(p.out)
		trace := make([][]string, 0, len(report.Trace))
		for _, t := range report.Trace {
			errText := ""
			if t.Err != "" {
				errText = p.fail.Sprint(t.Err)
			}
			trace = append(trace, []string{strconv.FormatUint(t.Seq, 10), t.Name, formatHex(t.Data), errText})
		}
		p.Table([]string{"#", "CHARACTERISTIC", "DATA", "ERROR"}, trace)
	}
}
