// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

// NodeID is an arena index into the driver's node table. Nodes never hold
// pointers to each other; every cross-node reference goes through an ID,
// so the graph can be walked and serialized without any weak-reference
// bookkeeping.
type NodeID int

// ConnectorID is an arena index into a node's input or output list.
type ConnectorID int

// ResourceID is an arena index into the driver's resource table. One
// output can own several resource copies (one per delay slot); each
// copy gets its own ResourceID.
type ResourceID int

// InvalidID marks an unset arena index, for any of the ID types above.
const InvalidID = -1
