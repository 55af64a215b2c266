package session

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chaos-io/cutout/imgproc"
	"github.com/chaos-io/cutout/util"
	"github.com/segmentio/ksuid"
)

const (
	UploadRoute = "/uploads/"
	OutputRoute = "/outputs/"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFilename     = errors.New("empty filename")
)

// Store 按 session id 在磁盘上存放上传的原图和处理结果
//
//	<uploadDir>/<id>.<ext>
//	<outputDir>/<id>_mask.png
//	<outputDir>/<id>_result.png
type Store struct {
	uploadDir  string
	outputDir  string
	extensions []string
}

func NewStore(uploadDir, outputDir string, extensions []string) (*Store, error) {
	for _, dir := range []string{uploadDir, outputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	exts := make([]string, 0, len(extensions))
	for _, e := range extensions {
		exts = append(exts, strings.ToLower(strings.TrimPrefix(e, ".")))
	}

	return &Store{
		uploadDir:  uploadDir,
		outputDir:  outputDir,
		extensions: exts,
	}, nil
}

func (s *Store) UploadDir() string { return s.uploadDir }
func (s *Store) OutputDir() string { return s.outputDir }

type Upload struct {
	ID       string
	Filename string
	Path     string
}

// Allowed 按扩展名判断是否支持
func (s *Store) Allowed(filename string) (string, bool) {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return "", false
	}
	ext := strings.ToLower(filename[i+1:])
	for _, e := range s.extensions {
		if e == ext {
			return ext, true
		}
	}
	return "", false
}

// SaveUpload 生成新的 session id 并保留原扩展名写入上传目录
func (s *Store) SaveUpload(filename string, r io.Reader) (*Upload, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	ext, ok := s.Allowed(filename)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}

	id := ksuid.New().String()
	name := id + "." + ext
	path := filepath.Join(s.uploadDir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	return &Upload{ID: id, Filename: name, Path: path}, nil
}

// Remove 删除某个 session 的所有文件
func (s *Store) Remove(id string) {
	if !ValidID(id) {
		return
	}
	for _, ext := range s.extensions {
		_ = os.Remove(filepath.Join(s.uploadDir, id+"."+ext))
	}
	_ = os.Remove(s.MaskPath(id))
	_ = os.Remove(s.ResultPath(id))
}

// FindImage 依次尝试每个支持的扩展名
func (s *Store) FindImage(id string) (string, error) {
	if !ValidID(id) {
		return "", ErrNotFound
	}
	for _, ext := range s.extensions {
		path := filepath.Join(s.uploadDir, id+"."+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrNotFound
}

func MaskFilename(id string) string   { return id + "_mask.png" }
func ResultFilename(id string) string { return id + "_result.png" }

func (s *Store) MaskPath(id string) string {
	return filepath.Join(s.outputDir, MaskFilename(id))
}

func (s *Store) ResultPath(id string) string {
	return filepath.Join(s.outputDir, ResultFilename(id))
}

// SaveMask 以 8 位灰度 PNG 保存 mask，返回文件名
func (s *Store) SaveMask(id string, mask image.Image) (string, error) {
	if !ValidID(id) {
		return "", ErrNotFound
	}
	if err := util.SavePNG(s.MaskPath(id), imgproc.ToGray(mask)); err != nil {
		return "", fmt.Errorf("save mask: %w", err)
	}
	return MaskFilename(id), nil
}

func (s *Store) LoadMask(id string) (*image.Gray, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}
	img, err := util.OpenImage(s.MaskPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open mask: %w", err)
	}
	return imgproc.ToGray(img), nil
}

func (s *Store) SaveResult(id string, img image.Image) (string, error) {
	if !ValidID(id) {
		return "", ErrNotFound
	}
	if err := util.SavePNG(s.ResultPath(id), img); err != nil {
		return "", fmt.Errorf("save result: %w", err)
	}
	return ResultFilename(id), nil
}

// ValidID session id 必须是合法的 KSUID，防止拼路径时跳出存储目录
func ValidID(id string) bool {
	_, err := ksuid.Parse(id)
	return err == nil
}

func UploadURL(filename string) string { return UploadRoute + filename }
func OutputURL(filename string) string { return OutputRoute + filename }
