package gorzdrav

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/iabalyuk/gorzdravbot/logging"
)

// DefaultBaseURL is the public v2 API root.
const DefaultBaseURL = "https://gorzdrav.spb.ru/_api/api/v2"

const userAgent = "gorzdrav-spb-bot"

// Client is a typed wrapper around the scheduling API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logging.Logger
	Debug      bool
}

// ClientConfig configures NewClient.
type ClientConfig struct {
	BaseURL string
	// Delay is the politeness interval between consecutive requests.
	Delay   time.Duration
	Timeout time.Duration
	Logger  *logging.Logger
	Debug   bool
}

type noDelayKey struct{}

// WithoutDelay marks ctx so that requests made with it skip the politeness delay.
func WithoutDelay(ctx context.Context) context.Context {
	return context.WithValue(ctx, noDelayKey{}, true)
}

func skipDelay(ctx context.Context) bool {
	v, _ := ctx.Value(noDelayKey{}).(bool)
	return v
}

// NewClient creates a client for the scheduling API.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:          10,
				MaxIdleConnsPerHost:   5,
				IdleConnTimeout:       60 * time.Second,
				ResponseHeaderTimeout: cfg.Timeout,
			},
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  cfg.Logger,
		Debug:   cfg.Debug,
	}
}

// getResult performs a GET and decodes the envelope's result into target.
// A success=false envelope is returned as *APIError.
func (c *Client) getResult(ctx context.Context, path string, target any) error {
	endpoint := c.baseURL + path

	if !skipDelay(ctx) {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter (GET %s): %w", endpoint, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	if c.Debug {
		c.logger.Debug("gorzdrav request", "url", endpoint)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("request context error (GET %s): %w", endpoint, ctxErr)
		}
		return fmt.Errorf("failed to execute request (GET %s): %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body (GET %s): %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("gorzdrav unexpected status", "url", endpoint, "status", resp.StatusCode, "body", truncate(string(body), 512))
		return fmt.Errorf("unexpected status code %d for GET %s", resp.StatusCode, endpoint)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to decode envelope for GET %s: %w", endpoint, err)
	}
	if !env.Success {
		apiErr := &APIError{Kind: Classify(env.ErrorCode), Code: env.ErrorCode, URL: endpoint}
		if env.Message != nil {
			apiErr.Message = *env.Message
		}
		if apiErr.Upstream() {
			c.logger.Warn("gorzdrav upstream fault", "url", endpoint, "error_code", env.ErrorCode, "message", apiErr.Message)
		}
		return apiErr
	}
	if target == nil || len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, target); err != nil {
		return fmt.Errorf("failed to decode result for GET %s: %w", endpoint, err)
	}
	return nil
}

// ListDistricts returns the city districts.
func (c *Client) ListDistricts(ctx context.Context) ([]District, error) {
	var out []District
	if err := c.getResult(ctx, "/shared/districts", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListFacilities returns the facilities of a district, or of the whole city
// when districtID is empty.
func (c *Client) ListFacilities(ctx context.Context, districtID string) ([]Facility, error) {
	path := "/shared/lpus"
	if districtID != "" {
		path = fmt.Sprintf("/shared/district/%s/lpus", url.PathEscape(districtID))
	}
	var out []Facility
	if err := c.getResult(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetFacility returns a single facility.
func (c *Client) GetFacility(ctx context.Context, facilityID int) (*Facility, error) {
	var out Facility
	if err := c.getResult(ctx, fmt.Sprintf("/shared/lpu/%d", facilityID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSpecialties returns the specialties offered by a facility. "No
// specialties" is reported as an empty list.
func (c *Client) ListSpecialties(ctx context.Context, facilityID int) ([]Specialty, error) {
	var out []Specialty
	err := c.getResult(ctx, fmt.Sprintf("/schedule/lpu/%d/specialties", facilityID), &out)
	if IsKind(err, KindNoSpecialties) {
		return []Specialty{}, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListDoctors returns the practitioners for a (facility, specialty) pair.
// "No doctors" is reported as an empty list.
func (c *Client) ListDoctors(ctx context.Context, facilityID int, specialtyID string) ([]DoctorInfo, error) {
	var out []DoctorInfo
	err := c.getResult(ctx, fmt.Sprintf("/schedule/lpu/%d/speciality/%s/doctors", facilityID, url.PathEscape(specialtyID)), &out)
	if IsKind(err, KindNoDoctors) {
		return []DoctorInfo{}, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetDoctor looks the doctor up in the current listing. It returns nil, nil
// when the doctor is not listed.
func (c *Client) GetDoctor(ctx context.Context, facilityID int, specialtyID, doctorID string) (*Doctor, error) {
	doctors, err := c.ListDoctors(ctx, facilityID, specialtyID)
	if err != nil {
		return nil, err
	}
	for _, d := range doctors {
		if d.ID == doctorID {
			return &Doctor{DoctorInfo: d, FacilityID: facilityID, SpecialtyID: specialtyID}, nil
		}
	}
	return nil, nil
}

// ListAppointments returns the free slots of a doctor. "No tickets" is
// reported as an empty list.
func (c *Client) ListAppointments(ctx context.Context, facilityID int, doctorID string) ([]Appointment, error) {
	var out []Appointment
	err := c.getResult(ctx, fmt.Sprintf("/schedule/lpu/%d/doctor/%s/appointments", facilityID, url.PathEscape(doctorID)), &out)
	if IsKind(err, KindNoTickets) {
		return []Appointment{}, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
