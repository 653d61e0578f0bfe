package fileinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWildcardMatchBasics(t *testing.T) {
	assert.True(t, WildcardMatch("report.log", "*.log"))
	assert.True(t, WildcardMatch("report.log", "report.???"))
	assert.False(t, WildcardMatch("report.log", "report.??"))
	assert.True(t, WildcardMatch("anything", "*"))
	assert.True(t, WildcardMatch("", "*"))
	assert.False(t, WildcardMatch("", "?"))
	assert.True(t, WildcardMatch("ABC.LOG", "*.log"))
}

func TestWildcardMatchBacktracking(t *testing.T) {
	assert.True(t, WildcardMatch("aXbXcXd", "a*b*c*d"))
	assert.False(t, WildcardMatch("aXbXcXd", "a*b*c*e"))
	assert.True(t, WildcardMatch("aaaa", "a*a*a*a"))
}

func TestIsGlob(t *testing.T) {
	assert.True(t, IsGlob("*.log"))
	assert.True(t, IsGlob("file?.txt"))
	assert.False(t, IsGlob("plainsubstr"))
}

func TestQueryMatchesSubstring(t *testing.T) {
	assert.True(t, QueryMatches("Report.TXT", "report"))
	assert.False(t, QueryMatches("report.txt", "xyz"))
}
