package reconcile

import "github.com/inkandswitch/pushwork/pkg/docstore"

// minimalSplice derives the single contiguous TextSplice that turns base into
// local, by trimming the longest common prefix and suffix. This covers the
// common case of one edit region; it is not a general multi-hunk diff, which
// the specification does not require, only that the resulting mutation,
// applied causally against the document's snapshot head, reproduce the local
// content without clobbering a concurrent remote edit elsewhere in the text.
func minimalSplice(base, local []rune) docstore.TextSplice {
	prefix := 0
	for prefix < len(base) && prefix < len(local) && base[prefix] == local[prefix] {
		prefix++
	}

	baseSuffix := len(base)
	localSuffix := len(local)
	for baseSuffix > prefix && localSuffix > prefix && base[baseSuffix-1] == local[localSuffix-1] {
		baseSuffix--
		localSuffix--
	}

	insert := append([]rune(nil), local[prefix:localSuffix]...)
	return docstore.TextSplice{
		Position: prefix,
		Delete:   baseSuffix - prefix,
		Insert:   insert,
	}
}
