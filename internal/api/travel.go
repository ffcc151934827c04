package api

import (
	"context"       // Per-mode timeouts
	"encoding/json" // Response decoding
	"fmt"           // Error formatting
	"net/http"      // HTTP status codes and client
	"net/url"       // Query encoding
	"strings"       // Duration text reformatting
	"sync"          // Concurrent mode lookups
	"time"          // Lookup timeout

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

const distanceMatrixURL = "https://maps.googleapis.com/maps/api/distancematrix/json"

// travelHTTP is the outbound client for the distance matrix lookups
var travelHTTP = &http.Client{Timeout: 5 * time.Second}

// TravelTimesHandler returns walking and driving durations between two
// points. Both modes are fetched concurrently; a failed mode comes back
// null rather than failing the request.
func TravelTimesHandler(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Query("origin")           // "lat,lng"
		destination := c.Query("destination") // "lat,lng"
		if origin == "" || destination == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "origin and destination are required"})
			return
		}
		if apiKey == "" {
			c.JSON(http.StatusOK, gin.H{"walking": nil, "driving": nil})
			return
		}

		var wg sync.WaitGroup
		results := make(map[string]*string, 2) // Mode to formatted duration
		var mu sync.Mutex
		for _, mode := range []string{"walking", "driving"} {
			wg.Add(1)
			go func(mode string) {
				defer wg.Done()
				ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
				defer cancel()
				duration, err := fetchTravelTime(ctx, apiKey, origin, destination, mode)
				if err != nil {
					logrus.WithFields(logrus.Fields{
						"mode":  mode,        // Which mode failed
						"error": err.Error(), // Lookup error
					}).Warn("Travel time lookup failed")
					return
				}
				mu.Lock()
				results[mode] = &duration
				mu.Unlock()
			}(mode)
		}
		wg.Wait()

		c.JSON(http.StatusOK, gin.H{
			"walking": results["walking"], // Null when the lookup failed
			"driving": results["driving"], // Null when the lookup failed
		})
	}
}

// fetchTravelTime asks the distance matrix API for one mode's duration
func fetchTravelTime(ctx context.Context, apiKey, origin, destination, mode string) (string, error) {
	q := url.Values{}
	q.Set("origins", origin)
	q.Set("destinations", destination)
	q.Set("mode", mode)
	q.Set("key", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, distanceMatrixURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := travelHTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("distance matrix request failed with status %d", resp.StatusCode)
	}
	var body struct {
		Rows []struct {
			Elements []struct {
				Status   string `json:"status"` // Per-element status
				Duration struct {
					Text string `json:"text"` // Human-readable duration
				} `json:"duration"`
			} `json:"elements"`
		} `json:"rows"`
		Status string `json:"status"` // Overall response status
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.Status != "OK" || len(body.Rows) == 0 || len(body.Rows[0].Elements) == 0 {
		return "", fmt.Errorf("distance matrix returned status %q", body.Status)
	}
	element := body.Rows[0].Elements[0]
	if element.Status != "OK" {
		return "", fmt.Errorf("no route found: %s", element.Status)
	}
	return compactDuration(element.Duration.Text), nil
}

// compactDuration shortens the API's duration text, e.g.
// "1 hour 23 mins" becomes "1hr 23min"
func compactDuration(text string) string {
	r := strings.NewReplacer(
		" hours", "hr",
		" hour", "hr",
		" mins", "min",
		" min", "min",
	)
	return r.Replace(text)
}
