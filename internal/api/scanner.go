package api

import (
	"errors"
	"fmt"
	"io"

	"github.com/dutchcoders/go-clamd"
)

var errMaliciousFile = errors.New("malicious file detected")

// virusScanner 扫描上传内容；发现威胁时返回 errMaliciousFile。
type virusScanner interface {
	Scan(r io.Reader) error
}

type clamdScanner struct {
	addr string
}

func newClamdScanner(addr string) *clamdScanner {
	return &clamdScanner{addr: addr}
}

func (s *clamdScanner) Scan(r io.Reader) error {
	client := clamd.NewClamd(s.addr)

	abortChan := make(chan bool)
	defer close(abortChan)

	scanChan, err := client.ScanStream(r, abortChan)
	if err != nil {
		return fmt.Errorf("scan stream: %w", err)
	}

	var found error
	for result := range scanChan {
		if result.Status != clamd.RES_OK && found == nil {
			found = fmt.Errorf("%w: %s", errMaliciousFile, result.Description)
		}
	}
	return found
}
