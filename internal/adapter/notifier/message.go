package notifier

import (
	"fmt"
	"strings"

	"github.com/semmidev/offsite/internal/domain"
)

func Subject(n domain.Notice) string {
	if n.Success {
		return "Backup Upload Successful"
	}
	return "[Warning] Backup Upload Failed"
}

func Body(n domain.Notice) string {
	var b strings.Builder
	if n.Success {
		fmt.Fprintf(&b, "Hi there, this is just to inform you that your backup was successfully uploaded to your %s bucket. So relax!\n", n.Service)
		if n.Report.Attempted > 0 {
			fmt.Fprintf(&b, "\nUploaded %d of %d files to %s.\n", n.Report.Uploaded, n.Report.Attempted, n.Report.Folder)
		}
		for _, f := range n.Report.Failed {
			if f.Path == "" {
				fmt.Fprintf(&b, "Not uploaded: %v\n", f.Err)
				continue
			}
			fmt.Fprintf(&b, "Not uploaded: %s (%v)\n", f.Path, f.Err)
		}
		return b.String()
	}

	fmt.Fprintf(&b, "Oops, your automated backup to %s failed.\n", n.Service)
	if n.Cause != "" {
		fmt.Fprintf(&b, "Cause: %s\n", n.Cause)
	}
	if n.Detail != "" {
		fmt.Fprintf(&b, "Error message: %s\n", n.Detail)
	}
	b.WriteString("Please contact your system manager for more information.\n")
	return b.String()
}
