package quotepdf

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// SystemFontPath is where distribution packages install NanumGothic.
const SystemFontPath = "/usr/share/fonts/truetype/nanum/NanumGothic.ttf"

const (
	maxFontBytes      = 32 << 20
	minRawFontBase64  = 1000
	fontFetchAttempts = 3
)

var (
	ErrNoFont = errors.New("quotepdf: no usable font")

	varFontPattern    = regexp.MustCompile(`var\s+font\s*=\s*['"]([^'"]+)['"]`)
	exportFontPattern = regexp.MustCompile(`export\s+default\s+['"]([^'"]+)['"]`)
	rawBase64Pattern  = regexp.MustCompile(`^[A-Za-z0-9+/=]+$`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// FontSource loads TrueType font bytes.
type FontSource struct {
	Name string
	Load func(ctx context.Context) ([]byte, error)
}

// FontResolver lists the places a Korean font is looked for, in order: an
// explicit file, the system NanumGothic, then a remote script.
type FontResolver struct {
	Path       string
	SystemPath string
	URL        string
	Client     *http.Client
	Logger     *zap.Logger
}

// Sources returns the configured font sources in lookup order.
func (r FontResolver) Sources() []FontSource {
	var sources []FontSource
	if r.Path != "" {
		sources = append(sources, fileSource("path", r.Path))
	}
	if r.SystemPath != "" && r.SystemPath != r.Path {
		sources = append(sources, fileSource("system", r.SystemPath))
	}
	if r.URL != "" {
		sources = append(sources, FontSource{Name: "remote", Load: r.fetch})
	}
	return sources
}

func fileSource(name, path string) FontSource {
	return FontSource{
		Name: name,
		Load: func(context.Context) ([]byte, error) {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read font %s: %w", path, err)
			}
			if len(data) == 0 {
				return nil, fmt.Errorf("read font %s: empty file", path)
			}
			return data, nil
		},
	}
}

func (r FontResolver) fetch(ctx context.Context) ([]byte, error) {
	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var body []byte
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 2 * time.Second

	err := backoff.RetryNotify(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("build font request: %w", err))
			}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("fetch font: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 500 {
				return fmt.Errorf("fetch font: status %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return backoff.Permanent(fmt.Errorf("fetch font: status %d", resp.StatusCode))
			}
			body, err = io.ReadAll(io.LimitReader(resp.Body, maxFontBytes))
			if err != nil {
				return fmt.Errorf("read font response: %w", err)
			}
			return nil
		},
		backoff.WithContext(backoff.WithMaxRetries(policy, fontFetchAttempts-1), ctx),
		func(err error, next time.Duration) {
			logger.Warn("font download failed, retrying",
				zap.String("url", r.URL),
				zap.Error(err),
				zap.Duration("next_attempt_in", next))
		},
	)
	if err != nil {
		return nil, err
	}
	return DecodeFontScript(string(body))
}

// DecodeFontScript extracts base64 font data from `var font = '...'`,
// `export default '...'`, or a bare base64 body longer than 1000 characters.
func DecodeFontScript(text string) ([]byte, error) {
	encoded := ""
	if m := varFontPattern.FindStringSubmatch(text); m != nil {
		encoded = m[1]
	} else if m := exportFontPattern.FindStringSubmatch(text); m != nil {
		encoded = m[1]
	} else {
		trimmed := whitespacePattern.ReplaceAllString(strings.TrimSpace(text), "")
		if len(trimmed) > minRawFontBase64 && rawBase64Pattern.MatchString(trimmed) {
			encoded = trimmed
		}
	}
	if encoded == "" {
		return nil, fmt.Errorf("decode font script: no base64 payload")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode font script: %w", err)
	}
	return data, nil
}

// EncodeFontScript wraps font as an ES module exporting its base64 text.
func EncodeFontScript(font []byte) string {
	return "export default '" + base64.StdEncoding.EncodeToString(font) + "'"
}
