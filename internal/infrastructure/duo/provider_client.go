package duo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	duoapi "github.com/duosecurity/duo_api_golang"

	"github.com/medunigraz/mfa-sync-service/internal/config"
	"github.com/medunigraz/mfa-sync-service/internal/domain"
)

const listPageSize = 300

// ProviderClient wraps the Duo Admin API behind domain.ProviderPort.
// Request signing is handled by the official transport; only the two
// calls the engine needs are exposed.
type ProviderClient struct {
	api          *duoapi.DuoApi
	directoryKey string
}

func NewProviderClient(cfg config.DuoService) *ProviderClient {
	return &ProviderClient{
		api:          duoapi.NewDuoApi(cfg.IKey, cfg.SKey, cfg.APIHost, "mfa-sync-service"),
		directoryKey: cfg.DirectoryKey,
	}
}

type userResponse struct {
	Stat     string `json:"stat"`
	Message  string `json:"message"`
	Response []struct {
		Username   string `json:"username"`
		IsEnrolled bool   `json:"is_enrolled"`
		Created    int64  `json:"created"`
	} `json:"response"`
}

func (c *ProviderClient) ListUsers(ctx context.Context) (map[string]domain.ProviderUser, error) {
	users := make(map[string]domain.ProviderUser)

	for offset := 0; ; offset += listPageSize {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(listPageSize))
		params.Set("offset", strconv.Itoa(offset))

		_, body, err := c.api.SignedCall(http.MethodGet, "/admin/v1/users", params)
		if err != nil {
			return nil, fmt.Errorf("list provider users: %w", err)
		}

		var page userResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode provider users: %w", err)
		}
		if page.Stat != "OK" {
			return nil, fmt.Errorf("list provider users: %s", page.Message)
		}

		for _, u := range page.Response {
			users[u.Username] = domain.ProviderUser{
				Username: u.Username,
				Enrolled: u.IsEnrolled,
				Created:  time.Unix(u.Created, 0),
			}
		}

		if len(page.Response) < listPageSize {
			break
		}
	}

	return users, nil
}

func (c *ProviderClient) SyncUser(ctx context.Context, username string) error {
	params := url.Values{}
	params.Set("username", username)

	uri := fmt.Sprintf("/admin/v1/users/directorysync/%s/syncuser", c.directoryKey)
	_, body, err := c.api.SignedCall(http.MethodPost, uri, params)
	if err != nil {
		return fmt.Errorf("sync user %s: %w", username, err)
	}

	var res struct {
		Stat    string `json:"stat"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return fmt.Errorf("decode sync response for %s: %w", username, err)
	}
	if res.Stat != "OK" {
		return fmt.Errorf("sync user %s: %s", username, res.Message)
	}

	return nil
}
