package main

import (
	_ "github.com/forumkit/anonboard/src/admintools"
	"github.com/forumkit/anonboard/src/website"
)

func main() {
	website.WebsiteCommand.Execute()
}
