package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondOKWithETag writes a success envelope tagged by a hash of data.
// The message is not part of the tag, so rewording it never busts client
// caches. A matching If-None-Match gets 304 with no body.
func RespondOKWithETag(ctx *gin.Context, data any) {
	tag, ok := dataETag(data)
	if !ok {
		RespondOK(ctx, "", data)
		return
	}

	ctx.Header("ETag", tag)
	ctx.Header("Cache-Control", "no-cache")

	if etagMatches(ctx.GetHeader("If-None-Match"), tag) {
		ctx.Status(http.StatusNotModified)
		return
	}
	RespondOK(ctx, "", data)
}

func dataETag(data any) (string, bool) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", false
	}
	sum := sha256.Sum256(raw)
	return `"` + hex.EncodeToString(sum[:16]) + `"`, true
}

// etagMatches applies weak comparison over a comma separated
// If-None-Match list.
func etagMatches(header, tag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}
	for _, candidate := range strings.Split(header, ",") {
		if strings.TrimPrefix(strings.TrimSpace(candidate), "W/") == tag {
			return true
		}
	}
	return false
}
