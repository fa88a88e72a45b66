package service

import (
	"regexp"

	"github.com/unclebandit/folio-backend/internal/model"
)

var (
	mobilePattern  = regexp.MustCompile(`(?i)mobile|iphone|ipod|blackberry|opera mini|iemobile`)
	tabletPattern  = regexp.MustCompile(`(?i)tablet|ipad|playbook|silk`)
	androidPattern = regexp.MustCompile(`(?i)android`)
)

// ClassifyDevice maps a user agent to mobile, tablet or desktop. Mobile
// tokens win over tablet tokens; a bare Android UA without either counts
// as mobile.
func ClassifyDevice(userAgent string) string {
	switch {
	case mobilePattern.MatchString(userAgent):
		return model.DeviceMobile
	case tabletPattern.MatchString(userAgent):
		return model.DeviceTablet
	case androidPattern.MatchString(userAgent):
		return model.DeviceMobile
	default:
		return model.DeviceDesktop
	}
}
