package report

import (
	"encoding/json"
	"os"
)

// generateJSON generates a JSON report
func (g *Generator) generateJSON(rep *Report, outputFile string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(outputFile, data, 0644)
}
