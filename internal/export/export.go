package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/sysdyn/internal/dynamo"
)

type Data struct {
	Model     string               `json:"model"`
	StartTime float64              `json:"start_time"`
	EndTime   float64              `json:"end_time"`
	Dt        float64              `json:"dt"`
	Steps     int                  `json:"steps"`
	Times     []float64            `json:"times"`
	Series    map[string][]float64 `json:"series"`
}

func build(model string, cfg dynamo.Config, result *dynamo.Result) Data {
	data := Data{
		Model:     model,
		StartTime: cfg.StartTime,
		EndTime:   cfg.EndTime,
		Dt:        cfg.Dt,
		Steps:     result.StepsTaken,
		Times:     result.Times,
		Series:    make(map[string][]float64, len(result.Names)),
	}
	for _, name := range result.Names {
		series, _ := result.Series(name)
		data.Series[name] = series
	}
	return data
}

// WriteJSONValue writes any value as indented JSON.
func WriteJSONValue(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func WriteJSON(w io.Writer, model string, cfg dynamo.Config, result *dynamo.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(build(model, cfg, result))
}

func JSONFile(path, model string, cfg dynamo.Config, result *dynamo.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, model, cfg, result)
}

// WriteCSV emits one row per reported snapshot, time first then every
// variable in declaration order.
func WriteCSV(w io.Writer, result *dynamo.Result) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := append([]string{"time"}, result.Names...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, snap := range result.Snapshots {
		row := make([]string, 0, len(result.Names)+1)
		row = append(row, strconv.FormatFloat(result.Times[i], 'f', 6, 64))
		for j := 0; j < snap.Len(); j++ {
			row = append(row, strconv.FormatFloat(snap.At(j), 'f', 6, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func CSVFile(path string, result *dynamo.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteCSV(file, result)
}
