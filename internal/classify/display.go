package classify

import (
	"fmt"
	"strings"

	"github.com/ppiankov/questclaim/internal/model"
)

// DescriptionText flattens a rich-text description into plain text
func DescriptionText(doc *model.RichText) string {
	if doc == nil {
		return ""
	}
	var b strings.Builder
	writeText(&b, doc.Content)
	return b.String()
}

func writeText(b *strings.Builder, nodes []model.RichText) {
	for _, n := range nodes {
		if n.Type == "text" {
			b.WriteString(n.Text)
			continue
		}
		writeText(b, n.Content)
	}
}

// DisplayText renders a quest for a report line
func DisplayText(appHost, subdomain string, quest model.Quest) string {
	return fmt.Sprintf("Name: *%s*\nDescription:\n_%s_\nClaim reward [here](https://%s/c/%s/questboard/%s)\n",
		quest.Name, DescriptionText(quest.Description), appHost, subdomain, quest.ID)
}
