package telemetry

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
)

var csvHeader = []string{
	"iteration", "candidate_cost", "candidate_seen", "incumbent_cost",
	"best_cost", "evaluations", "infeasible", "time", "temperature",
}

// CSVSink streams records to an io.Writer as CSV. The first Record call
// writes the header. Write errors are sticky and reported by Close.
type CSVSink struct {
	w     *csv.Writer
	c     io.Closer
	wrote bool
	err   error
}

func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w)}
}

// CreateCSVFile opens path for writing and returns a sink that closes the
// file on Close.
func CreateCSVFile(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s := NewCSVSink(f)
	s.c = f
	return s, nil
}

func (s *CSVSink) Record(rec IterationRecord) {
	if s.err != nil {
		return
	}
	if !s.wrote {
		s.wrote = true
		if s.err = s.w.Write(csvHeader); s.err != nil {
			return
		}
	}
	temperature := ""
	if rec.Temperature != nil {
		temperature = strconv.FormatFloat(*rec.Temperature, 'g', -1, 64)
	}
	s.err = s.w.Write([]string{
		strconv.Itoa(rec.Iteration),
		strconv.FormatInt(int64(rec.CandidateCost), 10),
		strconv.Itoa(rec.CandidateSeen),
		strconv.FormatInt(int64(rec.IncumbentCost), 10),
		strconv.FormatInt(int64(rec.BestCost), 10),
		strconv.Itoa(rec.Evaluations),
		strconv.Itoa(rec.Infeasible),
		strconv.FormatFloat(rec.Time, 'g', -1, 64),
		temperature,
	})
}

func (s *CSVSink) Close() error {
	s.w.Flush()
	if s.err == nil {
		s.err = s.w.Error()
	}
	if s.c != nil {
		if cerr := s.c.Close(); s.err == nil {
			s.err = cerr
		}
	}
	return s.err
}
