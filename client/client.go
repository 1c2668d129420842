package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xiaoxuxiansheng/gocheckout/protocol"
)

// RemoteError 对端返回了 4xx/5xx，Reason 原样保留对端的回复文本
type RemoteError struct {
	StatusCode int
	Reason     string
}

func (r *RemoteError) Error() string {
	return fmt.Sprintf("remote status %d: %s", r.StatusCode, r.Reason)
}

type baseClient struct {
	baseURL string
	client  *http.Client
}

func newBaseClient(baseURL string, timeout time.Duration) baseClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return baseClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// 发起请求并读出回复，网络错误包装为 ErrRemoteCall，非 2xx 返回 *RemoteError
func (b *baseClient) do(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", protocol.ErrRemoteCall, method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", protocol.ErrRemoteCall, path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Reason: string(body)}
	}
	return body, nil
}

func (b *baseClient) doJSON(ctx context.Context, method, path string, v interface{}) error {
	body, err := b.do(ctx, method, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", protocol.ErrRemoteCall, path, err)
	}
	return nil
}

func (b *baseClient) endTransaction(ctx context.Context, txID string, decision protocol.Decision) error {
	_, err := b.do(ctx, http.MethodPost, fmt.Sprintf("/endTransaction/%s/%s", txID, decision))
	return err
}
