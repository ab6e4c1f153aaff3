package export

import (
	"github.com/gen2brain/beeep"
	log "github.com/sirupsen/logrus"
)

type Notifier interface {
	Notify(title, message string) error
}

// DesktopNotifier shows a system notification.
type DesktopNotifier struct{}

func NewDesktopNotifier(appName string) *DesktopNotifier {
	beeep.AppName = appName
	return &DesktopNotifier{}
}

func (n *DesktopNotifier) Notify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// LogNotifier only writes the message to the log.
type LogNotifier struct{}

func (LogNotifier) Notify(title, message string) error {
	log.Infof("%s: %s", title, message)
	return nil
}
