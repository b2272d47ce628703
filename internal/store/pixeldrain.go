package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/dmorgan81/pdup/internal/log"
	"github.com/samber/do"
)

const (
	DefaultAPIURL  = "https://pixeldrain.com/api"
	DefaultFileURL = "https://pixeldrain.com"
)

type PixeldrainUploader struct {
	Client  *http.Client
	Key     string
	APIURL  string
	FileURL string
}

func NewPixeldrainUploader(i *do.Injector) (Uploader, error) {
	return &PixeldrainUploader{
		Client:  do.MustInvoke[*http.Client](i),
		Key:     do.MustInvokeNamed[string](i, "api_key"),
		APIURL:  DefaultAPIURL,
		FileURL: DefaultFileURL,
	}, nil
}

// AuthorizationHeader is the pixeldrain Basic credential: an empty user
// name and the API key as password.
func AuthorizationHeader(key string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(":"+key))
}

func (u *PixeldrainUploader) Upload(ctx context.Context, params UploadParams) (Result, error) {
	if u.Key == "" {
		return Result{}, ErrMissingAPIKey
	}

	endpoint := strings.TrimSuffix(u.APIURL, "/") + "/file/" + url.PathEscape(path.Base(params.Name))

	log := log.FromContextOrDiscard(ctx).WithGroup("pixeldrain").With("url", endpoint, "size", params.Size)
	log.Info("uploading to pixeldrain")

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, params.Body)
	if err != nil {
		return Result{}, err
	}
	req.ContentLength = params.Size
	if params.Size == 0 {
		req.Body = http.NoBody
	}
	req.Header.Set("Authorization", AuthorizationHeader(u.Key))

	resp, err := u.Client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	log.Info("received response", "status", resp.StatusCode)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return Result{}, fmt.Errorf("read error response: %w", err)
		}
		return Result{}, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, fmt.Errorf("decode upload response: %w", err)
	}
	if body.ID == "" {
		return Result{}, fmt.Errorf("decode upload response: no file id")
	}

	return Result{ID: body.ID, URL: u.FileURL + "/u/" + body.ID}, nil
}
