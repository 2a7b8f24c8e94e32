package handlers

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/BaSui01/opscrew/crew"
	"github.com/BaSui01/opscrew/types"
)

// maxDescriptionLen caps task descriptions. Anything longer is almost
// certainly pasted log output, not a task.
const maxDescriptionLen = 10000

// dangerousPatterns reject descriptions that look like shell injection
// attempts rather than operational requests.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`rm\s+-rf`),
	regexp.MustCompile(`sudo\s+`),
	regexp.MustCompile(`curl\s+.*\|\s*sh`),
	regexp.MustCompile(`wget\s+.*\|\s*sh`),
}

func validateRequest(req *TaskRequest) *types.Error {
	if req.Description == "" {
		return types.NewError(types.ErrInvalidRequest, "description is required").
			WithHTTPStatus(http.StatusBadRequest)
	}
	if len(req.Description) > maxDescriptionLen {
		return types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("description exceeds %d characters", maxDescriptionLen)).
			WithHTTPStatus(http.StatusBadRequest)
	}
	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(req.Description) {
			return types.NewError(types.ErrInvalidRequest, "description contains potentially dangerous content").
				WithHTTPStatus(http.StatusBadRequest)
		}
	}
	if !crew.KnownUseCase(req.UseCase) {
		return types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("unknown use case %q", req.UseCase)).
			WithHTTPStatus(http.StatusBadRequest)
	}
	return nil
}
