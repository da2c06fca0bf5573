package util

import (
	"fmt"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"math"
	"reflect"
	"strings"
	"testing"
)

func AssertEqual(t *testing.T, expected any, actual any) {
	expectedIsString := false
	actualIsString := false

	switch expected.(type) {
	case string:
		expectedIsString = true
	}
	switch actual.(type) {
	case string:
		actualIsString = true
	}

	if !reflect.DeepEqual(expected, actual) {
		if expectedIsString && actualIsString {
			assertEqualStrings(t, expected.(string), actual.(string))
		} else {
			sigolo.Errorb(1, "Expect to be equal.\nExpected: %+v\n----------\nActual  : %+v\n", expected, actual)
			t.Fail()
		}
	}
}

func AssertApprox[T float32 | float64](t *testing.T, expected T, actual T, accuracy T) {
	if math.Abs(float64(expected-actual)) > float64(accuracy) {
		sigolo.Errorb(1, "Expect to be approx. equal (accuracy %v).\nExpected: %v\nActual  : %v", accuracy, expected, actual)
		t.Fail()
	}
}

// AssertPointApprox compares both coordinates of the points with the given accuracy.
func AssertPointApprox(t *testing.T, expected orb.Point, actual orb.Point, accuracy float64) {
	if math.Abs(expected.X()-actual.X()) > accuracy || math.Abs(expected.Y()-actual.Y()) > accuracy {
		sigolo.Errorb(1, "Expect points to be approx. equal (accuracy %v).\nExpected: %v\nActual  : %v", accuracy, expected, actual)
		t.Fail()
	}
}

func assertEqualStrings(t *testing.T, expected string, actual string) {
	expected = strings.ReplaceAll(expected, "\n", "\\n\n")

	actual = strings.ReplaceAll(actual, "\n", "\\n\n")

	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")

	sigolo.Errorb(2, "Expect to be equal.\n|   | %-50s | %-50s |", "Expected", "Actual")
	fmt.Printf("|%s|\n", strings.Repeat("-", 109))

	for i, expectedLine := range expectedLines {
		actualLine := ""
		if len(actualLines) > i {
			actualLine = actualLines[i]
		}

		changeMark := " "
		if actualLine != expectedLine {
			changeMark = "*"
		}

		fmt.Printf("| %s | %-50s | %-50s |\n", changeMark, "\""+expectedLine+"\"", "\""+actualLine+"\"")
	}

	if len(actualLines) > len(expectedLines) {
		for i := len(expectedLines); i < len(actualLines); i++ {
			actualLine := actualLines[i]
			fmt.Printf("| * | %-50s | %-50s |\n", "", "\""+actualLine+"\"")
		}
	}

	t.Fail()
}

func AssertNil(t *testing.T, value any) {
	if value != nil && !reflect.ValueOf(value).IsNil() {
		sigolo.Errorb(1, "Expect to be 'nil' but was: %#v", value)
		t.Fail()
	}
}

func AssertNotNil(t *testing.T, value any) {
	if value == nil || reflect.ValueOf(value).IsNil() {
		sigolo.Errorb(1, "Expect NOT to be 'nil' but was: %#v", value)
		t.Fail()
	}
}

func AssertError(t *testing.T, expectedMessage string, err error) {
	if err == nil {
		sigolo.Errorb(1, "Expected message: %s\nActual error: nil", expectedMessage)
		t.Fail()
		return
	}
	if expectedMessage != err.Error() {
		sigolo.Errorb(1, "Expected message: %s\nActual error message: %s", expectedMessage, err.Error())
		t.Fail()
	}
}

// AssertErrorIs checks that err wraps the expected sentinel somewhere in its chain.
func AssertErrorIs(t *testing.T, expected error, err error) {
	if !errors.Is(err, expected) {
		sigolo.Errorb(1, "Expected error wrapping: %v\nActual error: %v", expected, err)
		t.Fail()
	}
}

func AssertTrue(t *testing.T, b bool) {
	if !b {
		sigolo.Errorb(1, "Expected true but got false")
		t.Fail()
	}
}

func AssertFalse(t *testing.T, b bool) {
	if b {
		sigolo.Errorb(1, "Expected false but got true")
		t.Fail()
	}
}
