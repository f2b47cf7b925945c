package engine

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/moznion/go-optional"
)

// getResultFolder lays results out as <results>/<run>/<range>/<data file>.
// The range segment is left out when neither bound is set.
func getResultFolder(resultsFolder string, runName string, dataPath string, startTime optional.Option[time.Time], endTime optional.Option[time.Time]) string {
	runFolder := filepath.Join(resultsFolder, runName)

	var dataFolder string

	if startTime.IsSome() || endTime.IsSome() {
		startTimeStr := "all"
		endTimeStr := "all"

		if startTime.IsSome() {
			startTimeStr = startTime.Unwrap().Format("20060102")
		}

		if endTime.IsSome() {
			endTimeStr = endTime.Unwrap().Format("20060102")
		}

		dataFolder = filepath.Join(runFolder, fmt.Sprintf("%s_%s", startTimeStr, endTimeStr))
	} else {
		dataFolder = runFolder
	}

	dataFileName := strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))

	return filepath.Join(dataFolder, dataFileName)
}

// cacheKey identifies a loaded series by file and requested range.
func cacheKey(dataPath string, startTime optional.Option[time.Time], endTime optional.Option[time.Time]) string {
	key := dataPath

	if startTime.IsSome() {
		key += "|" + startTime.Unwrap().UTC().Format(time.RFC3339)
	}

	key += "|"

	if endTime.IsSome() {
		key += endTime.Unwrap().UTC().Format(time.RFC3339)
	}

	return key
}
