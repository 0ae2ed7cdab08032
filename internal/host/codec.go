package host

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/pagedeck/pdk/internal/playlist"
)

// Configuration object wire format:
// 4-byte big-endian header length | header JSON | zstd body (optionally
// encrypted). The header stays plaintext so backends can inspect objects
// without the key.

const (
	// Magic identifies a configuration object.
	Magic = "PDCFG"
	// Version of the object format.
	Version = 1

	compressionZstd = "zstd"
)

// Header is the plaintext prefix of each configuration object.
type Header struct {
	Magic       string    `json:"magic"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	Compression string    `json:"compression"`
	Crypto      CryptoEnv `json:"crypto"`
}

// CryptoEnv holds the per-object nonce. Empty when the body is plaintext.
type CryptoEnv struct {
	NonceHex string `json:"nonce,omitempty"`
}

// EncodeConfig builds a configuration object: header + zstd-compressed
// config JSON. A non-nil key additionally encrypts the body with
// XChaCha20-Poly1305, binding the header as associated data.
func EncodeConfig(cfg playlist.Config, key []byte) ([]byte, error) {
	plain, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	compressed, err := zstdCompress(plain)
	if err != nil {
		return nil, err
	}

	h := Header{
		Magic:       Magic,
		Version:     Version,
		CreatedAt:   time.Now().UTC(),
		Compression: compressionZstd,
	}
	body := compressed
	if key != nil {
		nonce, err := newNonce()
		if err != nil {
			return nil, err
		}
		h.Crypto = CryptoEnv{NonceHex: hex.EncodeToString(nonce)}
		headerBytes, err := json.Marshal(&h)
		if err != nil {
			return nil, err
		}
		ct, err := seal(key, nonce, compressed, headerBytes)
		if err != nil {
			return nil, err
		}
		return frameObject(headerBytes, ct), nil
	}

	headerBytes, err := json.Marshal(&h)
	if err != nil {
		return nil, err
	}
	return frameObject(headerBytes, body), nil
}

// DecodeConfig parses and decodes a configuration object. key may be nil
// for plaintext objects; an encrypted object without a key is an error.
func DecodeConfig(raw []byte, key []byte) (playlist.Config, error) {
	var cfg playlist.Config
	headerBytes, body, err := splitObject(raw)
	if err != nil {
		return cfg, err
	}
	var h Header
	if err := json.Unmarshal(headerBytes, &h); err != nil {
		return cfg, fmt.Errorf("parse header: %w", err)
	}
	if h.Magic != Magic {
		return cfg, fmt.Errorf("bad magic %q", h.Magic)
	}
	if h.Version > Version {
		return cfg, fmt.Errorf("unsupported object version %d", h.Version)
	}

	if h.Crypto.NonceHex != "" {
		if key == nil {
			return cfg, fmt.Errorf("object is encrypted, no key configured")
		}
		nonce, err := hex.DecodeString(h.Crypto.NonceHex)
		if err != nil {
			return cfg, fmt.Errorf("decode nonce: %w", err)
		}
		body, err = open(key, nonce, body, headerBytes)
		if err != nil {
			return cfg, err
		}
	}
	if h.Compression == compressionZstd {
		body, err = zstdDecompress(body)
		if err != nil {
			return cfg, err
		}
	}
	if err := json.Unmarshal(body, &cfg); err != nil {
		return cfg, fmt.Errorf("parse configuration: %w", err)
	}
	return cfg, nil
}

func frameObject(header, body []byte) []byte {
	buf := make([]byte, 4, 4+len(header)+len(body))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(header)))
	buf = append(buf, header...)
	return append(buf, body...)
}

func splitObject(raw []byte) (header, body []byte, err error) {
	if len(raw) < 4 {
		return nil, nil, fmt.Errorf("object too short")
	}
	headerLen := binary.BigEndian.Uint32(raw[:4])
	if headerLen > 1024*1024 {
		return nil, nil, fmt.Errorf("header too long")
	}
	if len(raw) < 4+int(headerLen) {
		return nil, nil, fmt.Errorf("truncated object")
	}
	return raw[4 : 4+headerLen], raw[4+headerLen:], nil
}

func zstdCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func zstdDecompress(data []byte) ([]byte, error) {
	r, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return out, nil
}
