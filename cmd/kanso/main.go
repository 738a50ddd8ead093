// Command kanso computes habit statistics offline from a JSON export of habits,
// the same array GET /api/v1/habits returns.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
