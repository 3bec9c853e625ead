package timetable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	TokenURL = "https://tdx.transportdata.tw/auth/realms/TDXConnect/protocol/openid-connect/token"
	BaseURL  = "https://tdx.transportdata.tw/api/basic"
)

// Client reads daily TRA timetables from the TDX transport data platform.
type Client struct {
	hc      *http.Client
	baseURL string
}

// NewClient authenticates with the client-credentials grant; tokens are
// fetched and refreshed on demand.
func NewClient(ctx context.Context, clientID, clientSecret string) *Client {
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     TokenURL,
	}
	return newClient(ctx, cfg, BaseURL)
}

func newClient(ctx context.Context, cfg clientcredentials.Config, baseURL string) *Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: 10 * time.Second})
	hc := cfg.Client(ctx)
	hc.Timeout = 15 * time.Second
	return &Client{hc: hc, baseURL: baseURL}
}

type flexString string

// UnmarshalJSON accepts both "4" and 4.
func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type trainInfo struct {
	TrainNo       string     `json:"TrainNo"`
	TrainTypeCode flexString `json:"TrainTypeCode"`
	TrainTypeID   flexString `json:"TrainTypeID"`
	TrainTypeName struct {
		ZhTw string `json:"Zh_tw"`
	} `json:"TrainTypeName"`
}

func (i trainInfo) train() Train {
	code := string(i.TrainTypeCode)
	if code == "" {
		code = string(i.TrainTypeID)
	}
	return Train{No: i.TrainNo, TypeCode: code, TypeName: i.TrainTypeName.ZhTw}
}

type stopTime struct {
	StationID     string `json:"StationID"`
	ArrivalTime   string `json:"ArrivalTime"`
	DepartureTime string `json:"DepartureTime"`
}

func (s stopTime) departure() string {
	if s.DepartureTime != "" {
		return s.DepartureTime
	}
	return s.ArrivalTime
}

func (s stopTime) arrival() string {
	if s.ArrivalTime != "" {
		return s.ArrivalTime
	}
	return s.DepartureTime
}

// StationDepartures lists every train stopping at stationID on date (YYYYMMDD).
func (c *Client) StationDepartures(ctx context.Context, stationID, date string) ([]Train, error) {
	var items []struct {
		TrainInfo trainInfo `json:"TrainInfo"`
		StopTime  stopTime  `json:"StopTime"`
	}
	path := fmt.Sprintf("/v3/Rail/TRA/DailyStationTimetable/Station/%s/%s", url.PathEscape(stationID), apiDate(date))
	if err := c.get(ctx, path, &items); err != nil {
		return nil, err
	}
	out := make([]Train, 0, len(items))
	for _, it := range items {
		t := it.TrainInfo.train()
		t.Departure = it.StopTime.departure()
		out = append(out, t)
	}
	return out, nil
}

// ODDepartures lists trains running from origin to dest on date (YYYYMMDD),
// with departure at origin and arrival at dest.
func (c *Client) ODDepartures(ctx context.Context, origin, dest, date string) ([]Train, error) {
	var items []struct {
		TrainInfo trainInfo  `json:"TrainInfo"`
		StopTimes []stopTime `json:"StopTimes"`
	}
	path := fmt.Sprintf("/v3/Rail/TRA/DailyTrainTimetable/OD/%s/to/%s/%s",
		url.PathEscape(origin), url.PathEscape(dest), apiDate(date))
	if err := c.get(ctx, path, &items); err != nil {
		return nil, err
	}
	out := make([]Train, 0, len(items))
	for _, it := range items {
		var dep, arr *stopTime
		for i := range it.StopTimes {
			switch it.StopTimes[i].StationID {
			case origin:
				dep = &it.StopTimes[i]
			case dest:
				arr = &it.StopTimes[i]
			}
		}
		if dep == nil {
			continue
		}
		t := it.TrainInfo.train()
		t.Departure = dep.departure()
		if arr != nil {
			t.Arrival = arr.arrival()
		}
		out = append(out, t)
	}
	return out, nil
}

func apiDate(d string) string {
	if len(d) != 8 {
		return d
	}
	return d[:4] + "-" + d[4:6] + "-" + d[6:]
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	q := req.URL.Query()
	q.Set("$format", "JSON")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("accept", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("tdx request: %w", err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("tdx read: %w", err)
	}
	if res.StatusCode >= 400 {
		var e struct {
			Message string `json:"Message"`
		}
		_ = json.Unmarshal(body, &e)
		if e.Message != "" {
			return fmt.Errorf("tdx %s: %s (status=%d)", path, e.Message, res.StatusCode)
		}
		return fmt.Errorf("tdx %s failed (status=%d)", path, res.StatusCode)
	}
	return decodeList(body, v)
}

// decodeList accepts a bare JSON array or an object wrapping one, as the v3
// endpoints return the list beside metadata such as UpdateTime.
func decodeList(b []byte, v any) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(b, &obj); err != nil {
			return fmt.Errorf("decode tdx response: %w", err)
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b = []byte("[]")
		for _, k := range keys {
			raw := bytes.TrimSpace(obj[k])
			if len(raw) > 0 && raw[0] == '[' {
				b = raw
				break
			}
		}
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode tdx response: %w", err)
	}
	return nil
}
