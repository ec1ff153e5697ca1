package refactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransformPathRewritesMainSourceRoot(t *testing.T) {
	got := TransformPath("src/main/java/com/old/app/Svc.java", "com.old.app", "com.new.app")
	assert.Equal(t, "src/main/java/com/new/app/Svc.java", got)
}

func TestTransformPathRewritesTestSourceRoot(t *testing.T) {
	got := TransformPath("src/test/java/com/old/app/SvcTest.java", "com.old.app", "com.new.app")
	assert.Equal(t, "src/test/java/com/new/app/SvcTest.java", got)
}

func TestTransformPathLeavesUnrelatedPathsUnchanged(t *testing.T) {
	got := TransformPath("src/main/resources/application.yml", "com.old.app", "com.new.app")
	assert.Equal(t, "src/main/resources/application.yml", got)
}

func TestTransformPathRoundTrips(t *testing.T) {
	original := "src/main/java/com/old/app/nested/Svc.java"
	forward := TransformPath(original, "com.old.app", "com.new.app")
	back := TransformPath(forward, "com.new.app", "com.old.app")
	assert.Equal(t, original, back)
}

func TestTransformPathDoesNotMatchLongerSiblingPackage(t *testing.T) {
	got := TransformPath("src/main/java/com/old/appendix/Svc.java", "com.old.app", "com.new.app")
	assert.Equal(t, "src/main/java/com/old/appendix/Svc.java", got)
}
