package cloud

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
)

// UploadFile names a local file to send to POST /videos/upload.
type UploadFile struct {
	Path  string
	Title string
}

// ProgressFunc receives bytes sent so far and the file size.
type ProgressFunc func(sent, total int64)

// Upload streams the file as multipart form data without buffering it in
// memory, reporting progress as the body is consumed.
func (s *HTTPVideoService) Upload(ctx context.Context, token string, f UploadFile, progress ProgressFunc) (*VideoResponse, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat upload: %w", err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeMultipart(mw, file, f, &progressReader{r: file, total: stat.Size(), fn: progress})
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.baseURL+"/videos/upload", pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	s.client.logger.Info("uploading video", "file", filepath.Base(f.Path), "bytes", stat.Size())

	var resp VideoResponse
	if err := s.client.do(s.client.uploadClient, req, token, &resp); err != nil {
		pr.CloseWithError(err)
		return nil, err
	}
	return &resp, nil
}

func writeMultipart(mw *multipart.Writer, file *os.File, f UploadFile, body io.Reader) error {
	if f.Title != "" {
		if err := mw.WriteField("title", f.Title); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("file", filepath.Base(file.Name()))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, body); err != nil {
		return err
	}
	return mw.Close()
}

type progressReader struct {
	r     io.Reader
	total int64
	sent  atomic.Int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.fn != nil {
		p.fn(p.sent.Add(int64(n)), p.total)
	}
	return n, err
}
