// sim/metrics_utils.go
package sim

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// requestCSVHeader lists the columns written by SaveRequests.
const requestCSVHeader = "id,workflow,created,completed,response,service,queue,latency"

// SaveRequests writes one CSV row per handled request to fileName.
func SaveRequests(reqs []*ClientRequest, fileName string) error {
	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", fileName, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logrus.Errorf("Error closing file %s: %v", fileName, closeErr)
		}
	}()

	writer := bufio.NewWriter(file)
	if _, err := fmt.Fprintln(writer, requestCSVHeader); err != nil {
		return fmt.Errorf("writing %s: %w", fileName, err)
	}
	for _, r := range reqs {
		m := r.Metrics
		_, err := fmt.Fprintf(writer, "%s,%q,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			r.ID, r.Name, r.CreatedAt, r.CompletedAt,
			m.ResponseTime(), m.TotalServiceTime(), m.TotalQueueTime(), m.TotalLatencyTime())
		if err != nil {
			return fmt.Errorf("writing %s: %w", fileName, err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", fileName, err)
	}

	logrus.Debugf("Wrote %d requests to '%s'", len(reqs), fileName)
	return nil
}
