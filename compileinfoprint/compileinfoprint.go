// compileinfoprint is imported for its side effect of logging the build
// information of the binary at startup.
package compileinfoprint

import "github.com/apertus-open-source-cinema/darkcal/compileinfo"

func init() {
	compileinfo.Log()
}
