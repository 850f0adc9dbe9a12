// Package register registers all actuator models.
package register

import (
	// register simulated controllers.
	_ "github.com/team302/mechcore/components/actuator/fake"
)
