// Package imagecache proxies remote thumbnails: each image is fetched once,
// cached on disk, and optionally resized per request. Resized variants are
// cached next to the original.
package imagecache

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/isotube/isotube-server/idhash"
)

type Options struct {
	Cachedir   string
	HTTPClient *http.Client
}

type Cache struct {
	cachedir   string
	tmpExt     string
	httpClient *http.Client

	fetchMutexMap     map[string]*sync.Mutex
	fetchMutexMapLock sync.Mutex
}

const defaultJpegQuality = 85

func New(o Options) *Cache {
	c := &Cache{
		cachedir:      o.Cachedir,
		httpClient:    o.HTTPClient,
		fetchMutexMap: make(map[string]*sync.Mutex),
		tmpExt:        fmt.Sprintf(".%d", os.Getpid()),
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return c
}

func param2int(params map[string][]string, param string) (r int) {
	if val, ok := params[param]; ok && len(val) > 0 {
		x, _ := strconv.ParseUint(val[0], 10, 32)
		r = int(x)
	}
	return
}

// Serve writes the image at imageURL to the response, resized when the
// request carries w/h/q query parameters. Serving straight from the network
// on a cache miss is acceptable; failures turn into a 502.
func (c *Cache) Serve(rw http.ResponseWriter, rq *http.Request, imageURL string) {
	original, err := c.original(imageURL)
	if err != nil {
		http.Error(rw, "could not fetch image", http.StatusBadGateway)
		return
	}

	params := rq.URL.Query()
	w := param2int(params, "w")
	h := param2int(params, "h")
	q := param2int(params, "q")
	if w == 0 && h == 0 && q == 0 {
		c.serveFile(rw, rq, original)
		return
	}
	if q == 0 {
		q = defaultJpegQuality
	}

	variant := fmt.Sprintf("%s:%dx%dq=%d", original, w, h, q)
	if _, err := os.Stat(variant); err == nil {
		c.serveFile(rw, rq, variant)
		return
	}

	blob, err := c.resize(original, w, h, q)
	if err != nil {
		http.Error(rw, "could not resize image", http.StatusInternalServerError)
		return
	}
	c.writeFile(variant, blob)

	rw.Header().Set("Content-Type", "image/jpeg")
	rw.Header().Set("cache-control", "max-age=2592000")
	rw.Write(blob)
}

// original returns the path of the cached original, fetching it first if
// needed. Concurrent requests for the same URL share one fetch.
func (c *Cache) original(imageURL string) (string, error) {
	fn := path.Join(c.cachedir, idhash.Hash(imageURL))

	c.fetchMutexMapLock.Lock()
	m, ok := c.fetchMutexMap[fn]
	if !ok {
		m = &sync.Mutex{}
		c.fetchMutexMap[fn] = m
	}
	c.fetchMutexMapLock.Unlock()
	m.Lock()
	defer m.Unlock()

	if _, err := os.Stat(fn); err == nil {
		return fn, nil
	}

	resp, err := c.httpClient.Get(imageURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: unexpected status %d", imageURL, resp.StatusCode)
	}
	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if err := c.writeFile(fn, blob); err != nil {
		return "", err
	}
	return fn, nil
}

// writeFile stores a blob with the tmpfile-and-rename dance so readers never
// observe a partial file.
func (c *Cache) writeFile(fn string, blob []byte) error {
	if c.cachedir == "" {
		return fmt.Errorf("no cache directory configured")
	}
	tmp := fn + c.tmpExt
	if err := os.WriteFile(tmp, blob, 0666); err != nil {
		return err
	}
	if err := os.Rename(tmp, fn); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (c *Cache) resize(fn string, w, h, q int) ([]byte, error) {
	fh, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	img, _, err := image.Decode(fh)
	if err != nil {
		return nil, err
	}

	ow := img.Bounds().Dx()
	oh := img.Bounds().Dy()
	if ow == 0 || oh == 0 {
		return nil, fmt.Errorf("empty image")
	}

	// Calculate the missing dimension from the aspect ratio.
	if w == 0 && h > 0 {
		w = h * ow / oh
	}
	if h == 0 && w > 0 {
		h = w * oh / ow
	}
	if w == 0 && h == 0 {
		w, h = ow, oh
	}

	if w != ow || h != oh {
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Cache) serveFile(rw http.ResponseWriter, rq *http.Request, fn string) {
	file, err := os.Open(fn)
	if err != nil {
		http.Error(rw, "file not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	fi, err := file.Stat()
	if err != nil {
		http.Error(rw, "could not retrieve file info", http.StatusInternalServerError)
		return
	}
	rw.Header().Set("cache-control", "max-age=2592000")
	http.ServeContent(rw, rq, fi.Name(), fi.ModTime(), file)
}
