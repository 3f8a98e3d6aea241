// SPDX-License-Identifier: Apache-2.0

package drivers

import (
	"github.com/sirupsen/logrus"

	"github.com/sandboxvm/runtime/devicemanager/api"
)

func deviceLogger() *logrus.Entry {
	return api.DeviceLogger()
}
