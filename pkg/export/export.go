package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/kilianp07/chargeplan/core/format"
	"github.com/kilianp07/chargeplan/core/scheduler"
)

var csvHeader = []string{"id", "name", "current", "max", "target_current", "use_now", "time_to_full_now", "time_to_full_hms"}

// WriteJSON writes the equalization plan to w in JSON format.
func WriteJSON(w io.Writer, plan scheduler.Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		TargetSeconds int                 `json:"target_seconds"`
		TargetHMS     string              `json:"target_hms"`
		Optimal       bool                `json:"optimal"`
		Rows          []scheduler.PlanRow `json:"rows"`
	}{plan.TargetSeconds, format.Seconds(plan.TargetSeconds), plan.Optimal(), nonNil(plan.Rows)})
}

// WriteCSV writes one line per plan row with a header.
func WriteCSV(w io.Writer, plan scheduler.Plan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range plan.Rows {
		rec := []string{
			strconv.Itoa(r.ID),
			r.Name,
			strconv.Itoa(r.Current),
			strconv.Itoa(r.Max),
			strconv.Itoa(r.TargetCurrent),
			strconv.Itoa(r.UseNow),
			strconv.Itoa(r.TimeToFullNow),
			format.Seconds(r.TimeToFullNow),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable writes an aligned, human readable plan.
func WriteTable(w io.Writer, plan scheduler.Plan) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCHARGES\tTARGET\tUSE NOW\tFULL IN")
	for _, r := range plan.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%d/%d\t%d\t%d\t%s\n",
			r.ID, r.Name, r.Current, r.Max, r.TargetCurrent, r.UseNow, format.Seconds(r.TimeToFullNow))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if plan.Optimal() {
		_, err := fmt.Fprintf(w, "\nAlready optimal. All accounts full in %s.\n", format.Seconds(plan.TargetSeconds))
		return err
	}
	fmt.Fprintln(w, "\nSpend now:")
	for _, r := range plan.Actions() {
		fmt.Fprintf(w, "  %s: %d\n", r.Name, r.UseNow)
	}
	_, err := fmt.Fprintf(w, "All accounts full together in %s.\n", format.Seconds(plan.TargetSeconds))
	return err
}

// Write dispatches on format: "table", "json" or "csv".
func Write(w io.Writer, plan scheduler.Plan, f string) error {
	switch f {
	case "", "table":
		return WriteTable(w, plan)
	case "json":
		return WriteJSON(w, plan)
	case "csv":
		return WriteCSV(w, plan)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

func nonNil(rows []scheduler.PlanRow) []scheduler.PlanRow {
	if rows == nil {
		return []scheduler.PlanRow{}
	}
	return rows
}
