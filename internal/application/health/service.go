package health

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"time"

	"metallix-backend/internal/pkg/constants"

	"github.com/redis/go-redis/v9"
)

// DBPinger is optional. If nil, the database is reported as disconnected.
type DBPinger interface {
	Ping() error
}

// Report is the GET /health payload.
type Report struct {
	Status       string                `json:"status"`
	Runtime      RuntimeInfo           `json:"runtime"`
	Traffic      TrafficInfo           `json:"traffic"`
	Dependencies map[string]Dependency `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64  `json:"uptimeSeconds"`
	HeapMB        int    `json:"heapMb"`
	Goroutines    int    `json:"goroutines"`
	Platform      string `json:"platform"`
	GoVersion     string `json:"goVersion"`
}

type TrafficInfo struct {
	TotalRequests   int                    `json:"totalRequests"`
	SuccessCount    int                    `json:"successCount"`
	FailedCount     int                    `json:"failedCount"`
	SuccessRate     string                 `json:"successRate"`
	AvgResponseTime string                 `json:"avgResponseTime"`
	LastRequest     map[string]interface{} `json:"lastRequest"`
}

type Dependency struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

// Collect pings the database and Redis and reads the request counters kept by
// middleware.HealthMarker. Status is "ok" only when both stores answer.
func Collect(ctx context.Context, rdb *redis.Client, db DBPinger) Report {
	report := Report{Dependencies: make(map[string]Dependency, 2)}

	dbDep := Dependency{Status: "disconnected"}
	if db != nil {
		start := time.Now()
		if err := db.Ping(); err == nil {
			ms := time.Since(start).Milliseconds()
			dbDep = Dependency{Status: "connected", PingMs: &ms}
		} else {
			dbDep.Status = "error"
		}
	}
	report.Dependencies["database"] = dbDep

	redisDep := Dependency{Status: "disconnected"}
	traffic := TrafficInfo{SuccessRate: "100", AvgResponseTime: "0"}
	startMs := time.Now().UnixMilli()
	if rdb != nil {
		start := time.Now()
		if err := rdb.Ping(ctx).Err(); err == nil {
			ms := time.Since(start).Milliseconds()
			redisDep = Dependency{Status: "connected", PingMs: &ms}
			startMs = readTraffic(ctx, rdb, &traffic, startMs)
		} else {
			redisDep.Status = "error"
		}
	}
	report.Dependencies["redis"] = redisDep
	report.Traffic = traffic

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := (time.Now().UnixMilli() - startMs) / 1000
	if uptime < 0 {
		uptime = 0
	}
	report.Runtime = RuntimeInfo{
		UptimeSeconds: uptime,
		HeapMB:        int(m.HeapInuse / 1024 / 1024),
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}

	if dbDep.Status == "connected" && redisDep.Status == "connected" {
		report.Status = "ok"
	} else {
		report.Status = "issue"
	}
	return report
}

// readTraffic fills t from the counters and returns the recorded start time.
func readTraffic(ctx context.Context, rdb *redis.Client, t *TrafficInfo, startMs int64) int64 {
	vals, err := rdb.MGet(ctx,
		constants.KeyReqTotal, constants.KeyReqErrors, constants.KeyResTime,
		constants.KeyResCount, constants.KeyStartTime, constants.KeyLastReq,
	).Result()
	if err != nil {
		return startMs
	}
	str := func(i int) string {
		s, _ := vals[i].(string)
		return s
	}

	if s := str(4); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			startMs = v
		}
	} else {
		rdb.SetNX(ctx, constants.KeyStartTime, startMs, 0)
	}

	t.TotalRequests, _ = strconv.Atoi(str(0))
	t.FailedCount, _ = strconv.Atoi(str(1))
	t.SuccessCount = t.TotalRequests - t.FailedCount
	if t.TotalRequests > 0 {
		t.SuccessRate = strconv.FormatFloat(float64(t.SuccessCount)/float64(t.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(str(2), 64)
	count, _ := strconv.Atoi(str(3))
	if count > 0 {
		t.AvgResponseTime = strconv.FormatFloat(timeSum/float64(count), 'f', 2, 64)
	}
	if s := str(5); s != "" {
		_ = json.Unmarshal([]byte(s), &t.LastRequest)
	}
	return startMs
}

// RecentErrors returns up to constants.ErrorLogSize logged 5xx entries, newest first.
func RecentErrors(ctx context.Context, rdb *redis.Client) ([]map[string]interface{}, error) {
	out := []map[string]interface{}{}
	if rdb == nil {
		return out, nil
	}
	entries, err := rdb.LRange(ctx, constants.KeyErrorLog, 0, constants.ErrorLogSize-1).Result()
	if err != nil {
		return nil, err
	}
	for _, s := range entries {
		var m map[string]interface{}
		if json.Unmarshal([]byte(s), &m) == nil && m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

// Reset clears the counters and restarts the uptime clock.
func Reset(ctx context.Context, rdb *redis.Client) error {
	if err := rdb.Del(ctx, constants.HealthKeys...).Err(); err != nil {
		return err
	}
	return rdb.Set(ctx, constants.KeyStartTime, strconv.FormatInt(time.Now().UnixMilli(), 10), 0).Err()
}
