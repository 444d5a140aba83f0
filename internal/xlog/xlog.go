// Package xlog is a thin logrus wrapper giving every component a
// tagged logger, mirroring the tag-per-remote style of rclone's
// fs.Infof/Debugf/Errorf helpers.
package xlog

import "github.com/sirupsen/logrus"

// Logger is the process-wide logrus instance. Replaced wholesale in
// tests that want to capture output.
var Logger = logrus.StandardLogger()

// Tagged returns a logger that prefixes every entry with tag, the way
// rclone tags log lines with the remote or backend name.
func Tagged(tag string) *logrus.Entry {
	return Logger.WithField("tag", tag)
}
