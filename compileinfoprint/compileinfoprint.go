// compileinfoprint is imported by each command for the side effect of
// printing its build banner to os.Stderr at startup.
package compileinfoprint

import "github.com/pwilmart/zscore/compileinfo"

func init() {
	compileinfo.PrintToStdErr()
}
