package vm

import "fmt"

type logging struct {
	logfn func(mess string, args ...interface{})
	name  string
}

// logf logs under a single character mark: ">" run start, "?" input
// suspension, "#" halt.
func (log logging) logf(mark, mess string, args ...interface{}) {
	if log.logfn == nil {
		return
	}
	if len(args) > 0 {
		mess = fmt.Sprintf(mess, args...)
	}
	if log.name != "" {
		log.logfn("%v %v: %v", mark, log.name, mess)
	} else {
		log.logfn("%v %v", mark, mess)
	}
}
