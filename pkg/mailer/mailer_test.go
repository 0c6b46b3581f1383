package mailer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMessage(t *testing.T) {
	msg := string(BuildMessage(
		"noreply@tracker.local", "Equipment Tracker",
		"Upcoming Equipment Maintenance Notification",
		[]string{"a@x.com", "b@x.com"},
		"The following equipment are due for maintenance within the next 30 days:",
	))

	assert.True(t, strings.HasPrefix(msg, "From: Equipment Tracker <noreply@tracker.local>\r\n"))
	assert.Contains(t, msg, "To: a@x.com, b@x.com\r\n")
	assert.Contains(t, msg, "Subject: Upcoming Equipment Maintenance Notification\r\n")
	assert.Contains(t, msg, "charset=\"UTF-8\"")

	parts := strings.SplitN(msg, "\r\n\r\n", 2)
	assert.Len(t, parts, 2, "заголовки и тело разделяются пустой строкой")
	assert.Equal(t, "The following equipment are due for maintenance within the next 30 days:", parts[1])
}

func TestBuildMessage_NoFromName(t *testing.T) {
	msg := string(BuildMessage("noreply@tracker.local", "", "s", []string{"a@x.com"}, "b"))
	assert.True(t, strings.HasPrefix(msg, "From: noreply@tracker.local\r\n"))
}
