package website

import (
	"strconv"

	"github.com/forumkit/anonboard/src/utils"
)

const repliesPerPage = 20

// getPageInfo parses a page query parameter against a total count. An absent
// parameter means page 1; a malformed or out-of-range one is not ok.
func getPageInfo(pageParam string, totalCount int, perPage int) (page int, numPages int, ok bool) {
	numPages = utils.NumPages(totalCount, perPage)
	page = 1
	if pageParam != "" {
		p, err := strconv.Atoi(pageParam)
		if err != nil {
			return 0, 0, false
		}
		page = p
	}
	if page < 1 || page > numPages {
		return 0, 0, false
	}
	return page, numPages, true
}
