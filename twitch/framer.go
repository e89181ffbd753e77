package twitch

import (
	"bufio"
	"errors"
	"io"
	"unicode/utf8"
)

// ReadSize ограничивает размер одного чтения в режиме chunk.
const ReadSize = 2048

const maxLineSize = 64 * 1024

// ErrInvalidUTF8 возвращается, когда прочитанные байты не являются UTF-8.
var ErrInvalidUTF8 = errors.New("twitch: frame is not valid UTF-8")

type framer interface {
	Next() (string, error)
}

// chunkFramer отдаёт результат каждого чтения как отдельный кадр, без склейки.
type chunkFramer struct {
	r       io.Reader
	buf     []byte
	pending error
}

func newChunkFramer(r io.Reader) *chunkFramer {
	return &chunkFramer{r: r, buf: make([]byte, ReadSize)}
}

func (f *chunkFramer) Next() (string, error) {
	if f.pending != nil {
		return "", f.pending
	}

	n, err := f.r.Read(f.buf)
	if err != nil {
		if n == 0 {
			return "", err
		}
		// данные, пришедшие вместе с ошибкой, ещё обрабатываются
		f.pending = err
	}

	if !utf8.Valid(f.buf[:n]) {
		return "", ErrInvalidUTF8
	}
	return string(f.buf[:n]), nil
}

// lineFramer собирает строки, завершённые \n или \r\n, через границы чтений.
type lineFramer struct {
	scanner *bufio.Scanner
}

func newLineFramer(r io.Reader) *lineFramer {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, ReadSize), maxLineSize)
	scanner.Split(bufio.ScanLines)
	return &lineFramer{scanner: scanner}
}

func (f *lineFramer) Next() (string, error) {
	if !f.scanner.Scan() {
		if err := f.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}

	line := f.scanner.Bytes()
	if !utf8.Valid(line) {
		return "", ErrInvalidUTF8
	}
	return string(line), nil
}
