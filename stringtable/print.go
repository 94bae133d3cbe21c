package stringtable

import (
	"fmt"
	"io"
	"unsafe"
)

// Print writes every slot of the current storage to w.
func (t *StringTable) Print(w io.Writer) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	d := t.data.Load()
	fmt.Fprintf(w, "StringTable {capacity: %d, elements: %d, deleted: %d, retired: %d}\n",
		d.capacity, d.numberOfElements, d.numberOfDeleted, len(t.retired))
	for i := range d.slots {
		switch e := d.slots[i].Load(); e {
		case nil:
		case deletedElement:
			fmt.Fprintf(w, "%8d: <deleted>\n", i)
		default:
			fmt.Fprintf(w, "%8d: %08x %q\n", i, e.HashField(), e.String())
		}
	}
	fmt.Fprintln(w, "}")
}

// GetCurrentMemoryUsage is the size in bytes of the table itself and of
// all its storages, retired ones included. Strings are not counted.
func (t *StringTable) GetCurrentMemoryUsage() int {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	n := int(unsafe.Sizeof(*t)) + t.data.Load().memoryUsage()
	for _, d := range t.retired {
		n += d.memoryUsage()
	}

	return n
}
