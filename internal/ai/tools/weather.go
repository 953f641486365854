package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/mosS-Green/plugins/internal/ai"
)

type weatherDesc []struct {
	Value string `json:"value"`
}

func (d weatherDesc) String() string {
	if len(d) == 0 {
		return "unknown"
	}
	return d[0].Value
}

type weatherData struct {
	CurrentCondition []struct {
		TempC         string      `json:"temp_C"`
		WeatherDesc   weatherDesc `json:"weatherDesc"`
		WindspeedKmph string      `json:"windspeedKmph"`
	} `json:"current_condition"`
	Weather []struct {
		Date   string           `json:"date"`
		Hourly []hourlyForecast `json:"hourly"`
	} `json:"weather"`
}

type hourlyForecast struct {
	Time          string      `json:"time"`
	TempC         string      `json:"tempC"`
	WeatherDesc   weatherDesc `json:"weatherDesc"`
	WindspeedKmph string      `json:"windspeedKmph"`
}

var dayPeriods = []struct {
	name  string
	hours []string
}{
	{"Night", []string{"0", "300", "600"}},
	{"Morning", []string{"900", "1200"}},
	{"Afternoon", []string{"1500"}},
	{"Evening", []string{"1800", "2100"}},
}

func (t *Tools) weather(ctx context.Context, args map[string]any) (string, error) {
	location := strings.TrimSpace(ai.StringArg(args, "location"))
	if location == "" {
		return "", fmt.Errorf("location is empty")
	}
	days := 1
	if n, err := ai.Int64Arg(args, "days"); err == nil && n >= 1 && n <= 3 {
		days = int(n)
	}

	endpoint := fmt.Sprintf("%s/%s?format=j1", strings.TrimRight(t.cfg.WeatherBaseURL, "/"), url.PathEscape(location))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("weather service unavailable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("weather service returned status %d", resp.StatusCode)
	}

	var data weatherData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("failed to parse weather data: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Weather forecast for %s:\n", location)
	if len(data.CurrentCondition) > 0 {
		current := data.CurrentCondition[0]
		fmt.Fprintf(&sb, "\nCurrent: %s°C, %s, wind %s km/h\n", current.TempC, current.WeatherDesc, current.WindspeedKmph)
	}

	today := t.now()
	for i := 0; i < days && i < len(data.Weather); i++ {
		day := data.Weather[i]
		date, err := time.Parse(time.DateOnly, day.Date)
		if err != nil {
			continue
		}
		layout := "Monday, January 2"
		if date.YearDay() == today.YearDay() && date.Year() == today.Year() {
			layout = "Today, January 2"
		}
		fmt.Fprintf(&sb, "\n%s:\n", date.Format(layout))

		for _, period := range dayPeriods {
			idx := slices.IndexFunc(day.Hourly, func(h hourlyForecast) bool {
				return slices.Contains(period.hours, h.Time)
			})
			if idx < 0 {
				continue
			}
			hour := day.Hourly[idx]
			fmt.Fprintf(&sb, "- %s: %s°C, %s, wind %s km/h\n", period.name, hour.TempC, hour.WeatherDesc, hour.WindspeedKmph)
		}
	}
	return sb.String(), nil
}
