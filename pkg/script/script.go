// Package script loads Structured Text source files and converts them to
// UTF-8. PLC engineering tools commonly export in the platform code page, so
// Shift-JIS, Windows-1252 and UTF-16 files are accepted alongside UTF-8.
package script

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/zurustar/stsim/pkg/fileutil"
)

// Encoding names accepted by Decode.
const (
	EncodingAuto        = "auto"
	EncodingUTF8        = "utf-8"
	EncodingShiftJIS    = "shift_jis"
	EncodingEUCJP       = "euc-jp"
	EncodingWindows1252 = "windows-1252"
	EncodingUTF16       = "utf-16"
	EncodingUTF16LE     = "utf-16le"
	EncodingUTF16BE     = "utf-16be"
)

// Script はスクリプトファイルを表す
type Script struct {
	FileName string // ファイル名
	Path     string // 実際に読み込んだパス
	Content  string // UTF-8に変換された内容
	Encoding string // 変換元のエンコーディング
	Size     int64  // ファイルサイズ
}

// Load はファイルを読み込み、指定されたエンコーディングからUTF-8に変換する
func Load(path, enc string) (*Script, error) {
	resolved, err := fileutil.ResolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to find file: %w", err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	content, detected, err := Decode(data, enc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert encoding: %w", err)
	}

	return &Script{
		FileName: filepath.Base(resolved),
		Path:     resolved,
		Content:  content,
		Encoding: detected,
		Size:     int64(len(data)),
	}, nil
}

// Decode はデータをUTF-8文字列に変換し、使用したエンコーディング名を返す
//
// "auto" はBOMを優先し、BOMがなければ有効なUTF-8はそのまま、
// それ以外はShift-JISとして扱う。
func Decode(data []byte, enc string) (string, string, error) {
	name := normalizeName(enc)
	if name == EncodingAuto {
		name = detect(data)
	}

	switch name {
	case EncodingUTF8:
		data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
		if !utf8.Valid(data) {
			return "", name, fmt.Errorf("input is not valid UTF-8")
		}
		return string(data), name, nil
	case EncodingShiftJIS:
		return decodeWith(data, japanese.ShiftJIS, name)
	case EncodingEUCJP:
		return decodeWith(data, japanese.EUCJP, name)
	case EncodingWindows1252:
		return decodeWith(data, charmap.Windows1252, name)
	case EncodingUTF16, EncodingUTF16LE:
		// BOMがあればそちらを優先する
		return decodeWith(data, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), name)
	case EncodingUTF16BE:
		return decodeWith(data, unicode.UTF16(unicode.BigEndian, unicode.UseBOM), name)
	default:
		return "", name, fmt.Errorf("unsupported encoding %q", enc)
	}
}

// SupportedEncodings returns the accepted encoding names.
func SupportedEncodings() []string {
	return []string{
		EncodingAuto, EncodingUTF8, EncodingShiftJIS, EncodingEUCJP,
		EncodingWindows1252, EncodingUTF16, EncodingUTF16LE, EncodingUTF16BE,
	}
}

// detect はBOMと内容からエンコーディングを推定する
func detect(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return EncodingUTF8
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return EncodingUTF16LE
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return EncodingUTF16BE
	case utf8.Valid(data):
		return EncodingUTF8
	default:
		return EncodingShiftJIS
	}
}

// normalizeName はエンコーディング名の表記ゆれを吸収する
func normalizeName(enc string) string {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "auto":
		return EncodingAuto
	case "utf-8", "utf8":
		return EncodingUTF8
	case "shift_jis", "shift-jis", "sjis", "cp932":
		return EncodingShiftJIS
	case "euc-jp", "eucjp":
		return EncodingEUCJP
	case "windows-1252", "cp1252", "latin1":
		return EncodingWindows1252
	case "utf-16", "utf16":
		return EncodingUTF16
	case "utf-16le", "utf16le":
		return EncodingUTF16LE
	case "utf-16be", "utf16be":
		return EncodingUTF16BE
	default:
		return enc
	}
}

// decodeWith は指定のデコーダーでUTF-8に変換する
func decodeWith(data []byte, e encoding.Encoding, name string) (string, string, error) {
	reader := transform.NewReader(bytes.NewReader(data), e.NewDecoder())
	utf8Data, err := io.ReadAll(reader)
	if err != nil {
		return "", name, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return string(utf8Data), name, nil
}
