package validator

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/integration/extractor"
)

var AllowedMimeTypes = map[string]bool{
	extractor.MimeTextPlain: true,
	extractor.MimePDF:       true,
	extractor.MimeMSWord:    true,
	extractor.MimeDOCX:      true,
}

var extensionMimeTypes = map[string]string{
	".txt":  extractor.MimeTextPlain,
	".md":   extractor.MimeTextPlain,
	".pdf":  extractor.MimePDF,
	".doc":  extractor.MimeMSWord,
	".docx": extractor.MimeDOCX,
}

// ValidateUpload checks owner, name, size and type of an uploaded document
// and stores the resolved MIME type in req.MimeType.
func (v *Validator) ValidateUpload(req *entity.UploadDocumentRequest) error {
	if err := v.ValidateUserID(req.UserID); err != nil {
		return err
	}
	if strings.TrimSpace(req.Filename) == "" {
		return fmt.Errorf("%w: file name", entity.ErrMissingField)
	}
	if len(req.Content) == 0 {
		return fmt.Errorf("%w: file is empty", entity.ErrEmptyDocument)
	}
	if int64(len(req.Content)) > v.cfg.MaxFileSize {
		return fmt.Errorf("%w: file '%s' is %d bytes (max %d)", entity.ErrFileTooLarge, req.Filename, len(req.Content), v.cfg.MaxFileSize)
	}

	mimeType, err := ResolveMimeType(req.Filename, req.MimeType)
	if err != nil {
		return err
	}
	req.MimeType = mimeType
	return nil
}

// ResolveMimeType returns the supported MIME type of a file. The declared
// type wins when it is supported, otherwise the extension decides.
func ResolveMimeType(filename, declared string) (string, error) {
	if declared != "" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil && AllowedMimeTypes[mediaType] {
			return mediaType, nil
		}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if mimeType, ok := extensionMimeTypes[ext]; ok {
		return mimeType, nil
	}

	return "", fmt.Errorf("%w: %q (%s) (allowed: txt, md, pdf, doc, docx)", entity.ErrUnsupportedMimeType, filename, declared)
}

// SanitizeFilename sanitizes a filename for safe storage
func SanitizeFilename(filename string) string {
	filename = filepath.Base(filepath.Clean("/" + strings.ReplaceAll(filename, "\\", "/")))
	replacer := strings.NewReplacer(
		" ", "_",
		"(", "",
		")", "",
		"[", "",
		"]", "",
		"{", "",
		"}", "",
		"..", "",
	)
	filename = replacer.Replace(filename)
	if filename == "" || filename == "/" || filename == "." {
		return "file"
	}
	return filename
}
