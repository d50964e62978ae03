package ga4

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Funnel event names.
const (
	EventToolUsed     = "tool_used"
	EventEmailSignup  = "email_signup"
	EventShareCreated = "share_created"
)

// SetupHint explains how to create the custom dimension the per-tool
// reports need.
const SetupHint = "Custom dimension 'tool_name' not configured in GA4. " +
	"To fix: GA4 Admin > Custom definitions > Create custom dimension " +
	"with name 'tool_name', scope 'Event', and event parameter 'tool_name'."

const aggregateNote = "Showing aggregate data only (not broken down by tool)."

// EventsReport counts events per name and tool.
type EventsReport struct {
	Success  bool                        `json:"success"`
	Period   string                      `json:"period"`
	PulledAt string                      `json:"pulled_at"`
	Events   map[string]map[string]int64 `json:"events"`
}

// PageTraffic is the traffic of one page path.
type PageTraffic struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
	Users int64  `json:"users"`
}

// TrafficReport lists page traffic, most viewed first.
type TrafficReport struct {
	Success  bool          `json:"success"`
	Period   string        `json:"period"`
	PulledAt string        `json:"pulled_at"`
	Pages    []PageTraffic `json:"pages"`
}

// Funnel is the tool_used to email_signup and share_created conversion of
// one tool.
type Funnel struct {
	ToolUsed            int64   `json:"tool_used"`
	EmailSignup         int64   `json:"email_signup"`
	ShareCreated        int64   `json:"share_created"`
	EmailConversionRate float64 `json:"email_conversion_rate"`
	ShareConversionRate float64 `json:"share_conversion_rate"`
}

// FunnelReport holds the funnels per tool.
type FunnelReport struct {
	Success       bool              `json:"success"`
	Period        string            `json:"period"`
	PulledAt      string            `json:"pulled_at"`
	Funnels       map[string]Funnel `json:"funnels"`
	Note          string            `json:"note,omitempty"`
	SetupRequired string            `json:"setup_required,omitempty"`
}

// Period labels a report window.
func Period(days int) string {
	return fmt.Sprintf("last_%d_days", days)
}

func (c *Client) stamp() string {
	return c.now().UTC().Format("2006-01-02T15:04:05.000000") + "Z"
}

func toolOf(r row, byTool bool) string {
	if !byTool {
		return "all"
	}
	if t := r.dimension(1); t != "" {
		return t
	}
	return "unknown"
}

// Events pulls event counts for the last days days.
func (c *Client) Events(ctx context.Context, days int) (*EventsReport, error) {
	rows, byTool, _, err := c.eventRows(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("pull events: %w", err)
	}
	events := map[string]map[string]int64{}
	for _, r := range rows {
		event := r.dimension(0)
		if events[event] == nil {
			events[event] = map[string]int64{}
		}
		events[event][toolOf(r, byTool)] = r.metric(0)
	}
	return &EventsReport{Success: true, Period: Period(days), PulledAt: c.stamp(), Events: events}, nil
}

// Traffic pulls page views and active users per path.
func (c *Client) Traffic(ctx context.Context, days int) (*TrafficReport, error) {
	rows, err := c.runReport(ctx, days, []string{"pagePath"}, []string{"screenPageViews", "activeUsers"})
	if err != nil {
		return nil, fmt.Errorf("pull traffic: %w", err)
	}
	pages := make([]PageTraffic, 0, len(rows))
	for _, r := range rows {
		pages = append(pages, PageTraffic{Path: r.dimension(0), Views: r.metric(0), Users: r.metric(1)})
	}
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Views > pages[j].Views })
	return &TrafficReport{Success: true, Period: Period(days), PulledAt: c.stamp(), Pages: pages}, nil
}

// Funnels pulls the conversion funnel per tool. Without the tool dimension
// the report is a single "all" funnel with a note, plus a setup hint when
// the API rejected the dimension.
func (c *Client) Funnels(ctx context.Context, days int) (*FunnelReport, error) {
	rows, byTool, dimErr, err := c.eventRows(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("pull funnel: %w", err)
	}

	funnels := map[string]Funnel{}
	for _, r := range rows {
		tool := toolOf(r, byTool)
		f := funnels[tool]
		switch r.dimension(0) {
		case EventToolUsed:
			f.ToolUsed = r.metric(0)
		case EventEmailSignup:
			f.EmailSignup = r.metric(0)
		case EventShareCreated:
			f.ShareCreated = r.metric(0)
		}
		funnels[tool] = f
	}
	for tool, f := range funnels {
		if f.ToolUsed > 0 {
			f.EmailConversionRate = rate(f.EmailSignup, f.ToolUsed)
			f.ShareConversionRate = rate(f.ShareCreated, f.ToolUsed)
		}
		funnels[tool] = f
	}

	report := &FunnelReport{Success: true, Period: Period(days), PulledAt: c.stamp(), Funnels: funnels}
	if !byTool {
		report.Note = aggregateNote
		if dimErr != nil && isInvalidDimension(dimErr) {
			report.SetupRequired = SetupHint
			c.logger.Warn("tool_name dimension not configured")
		}
	}
	return report, nil
}

func isInvalidDimension(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "not a valid dimension") || strings.Contains(msg, toolDimension)
}

func rate(part, whole int64) float64 {
	return math.Round(float64(part)/float64(whole)*100*100) / 100
}
